package orders

import (
	"context"

	"github.com/dmitrijs2005/gophshop/internal/server/models"
)

type Repository interface {
	// Create writes the order and all of its items. Callers run it inside a
	// transaction so a partial order is never visible.
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
}
