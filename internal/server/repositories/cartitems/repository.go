package cartitems

import (
	"context"

	"github.com/dmitrijs2005/gophshop/internal/server/models"
)

type Repository interface {
	// Add inserts a cart line for (userID, itemID) or bumps its quantity by one.
	Add(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	GetByID(ctx context.Context, id string) (*models.CartItem, error)
	Delete(ctx context.Context, id string) (*models.CartItem, error)
	// ListByUser returns the user's cart joined with the catalog.
	ListByUser(ctx context.Context, userID string) ([]*models.CartItem, error)
	// DeleteByIDs removes the given lines of userID's cart and reports how
	// many rows went away.
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
}
