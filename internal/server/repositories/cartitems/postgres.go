package cartitems

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for foreign_key_violation.
const foreignKeyViolation = "23503"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCartItem(row interface{ Scan(...any) error }) (*models.CartItem, error) {
	ci := &models.CartItem{}
	if err := row.Scan(&ci.ID, &ci.UserID, &ci.ItemID, &ci.Quantity); err != nil {
		if dbx.NoRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ci, nil
}

// Add relies on the (user_id, item_id) unique constraint so two concurrent
// adds of the same item end up as one row with quantity 2.
func (r *PostgresRepository) Add(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	query :=
		`INSERT INTO cart_items (user_id, item_id, quantity)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = cart_items.quantity + 1
		 RETURNING id, user_id, item_id, quantity
		 `

	ci, err := scanCartItem(r.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, fmt.Errorf("%w: item %s", common.ErrorNotFound, itemID)
		}
		return nil, err
	}
	return ci, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.CartItem, error) {
	query := `SELECT id, user_id, item_id, quantity FROM cart_items WHERE id = $1`
	return scanCartItem(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.CartItem, error) {
	query := `DELETE FROM cart_items WHERE id = $1 RETURNING id, user_id, item_id, quantity`
	return scanCartItem(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.CartItem, error) {
	query :=
		`SELECT c.id, c.user_id, c.item_id, c.quantity,
		        i.id, i.title, i.description, i.image, i.large_image, i.price
		 FROM cart_items c
		 JOIN items i ON i.id = c.item_id
		 WHERE c.user_id = $1
		 ORDER BY c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.CartItem
	for rows.Next() {
		ci := &models.CartItem{Item: &models.Item{}}
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.ItemID, &ci.Quantity,
			&ci.Item.ID, &ci.Item.Title, &ci.Item.Description, &ci.Item.Image, &ci.Item.LargeImage, &ci.Item.Price); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	ph := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		ph[i] = "$" + strconv.Itoa(i+2)
	}

	query := `DELETE FROM cart_items WHERE user_id = $1 AND id IN (` + strings.Join(ph, ", ") + `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
