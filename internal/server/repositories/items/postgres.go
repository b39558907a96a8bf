package items

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
)

const itemColumns = `id, title, description, image, large_image, price, user_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	it := &models.Item{}
	var owner sql.NullString
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Image, &it.LargeImage, &it.Price, &owner); err != nil {
		if dbx.NoRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	it.UserID = owner.String
	return it, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`INSERT INTO items (title, description, image, large_image, price, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.Title, item.Description, item.Image, item.LargeImage, item.Price, nullable(item.UserID)).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return scanItem(r.db.QueryRowContext(ctx, query, id))
}

// Update overwrites the editable fields. The owner is never changed.
func (r *PostgresRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`UPDATE items SET title = $2, description = $3, image = $4, large_image = $5, price = $6
		 WHERE id = $1
		 RETURNING ` + itemColumns

	return scanItem(r.db.QueryRowContext(ctx, query,
		item.ID, item.Title, item.Description, item.Image, item.LargeImage, item.Price))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Item, error) {
	query := `DELETE FROM items WHERE id = $1 RETURNING ` + itemColumns
	return scanItem(r.db.QueryRowContext(ctx, query, id))
}
