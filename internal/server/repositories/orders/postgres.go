package orders

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO orders (id, user_id, total, charge)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, order.ID, order.UserID, order.Total, order.Charge).Scan(&order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	itemQuery :=
		`INSERT INTO order_items (id, order_id, user_id, title, description, image, large_image, price, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	for _, oi := range order.Items {
		if oi.ID == "" {
			oi.ID = uuid.NewString()
		}
		oi.OrderID = order.ID
		if oi.UserID == "" {
			oi.UserID = order.UserID
		}

		_, err := r.db.ExecContext(ctx, itemQuery,
			oi.ID, oi.OrderID, oi.UserID, oi.Title, oi.Description, oi.Image, oi.LargeImage, oi.Price, oi.Quantity)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return order, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT id, user_id, total, charge, created_at FROM orders WHERE id = $1`

	o := &models.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.UserID, &o.Total, &o.Charge, &o.CreatedAt)
	if err != nil {
		if dbx.NoRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	items, err := r.itemsFor(ctx, `WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	query :=
		`SELECT id, user_id, total, charge, created_at FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o := &models.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Charge, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, `WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range out {
		o.Items = items[o.ID]
	}
	return out, nil
}

// itemsFor loads order items matching where and groups them by order id.
func (r *PostgresRepository) itemsFor(ctx context.Context, where string, arg any) (map[string][]*models.OrderItem, error) {
	query :=
		`SELECT id, order_id, user_id, title, description, image, large_image, price, quantity
		 FROM order_items ` + where + `
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]*models.OrderItem)
	for rows.Next() {
		oi := &models.OrderItem{}
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.UserID, &oi.Title, &oi.Description,
			&oi.Image, &oi.LargeImage, &oi.Price, &oi.Quantity); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[oi.OrderID] = append(out[oi.OrderID], oi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
