package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
)

// CartService keeps per-user cart lines. Adding an item already in the cart
// bumps its quantity instead of creating a second line.
type CartService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCartService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CartService {
	return &CartService{db: db, repomanager: m, logger: logger}
}

func (s *CartService) AddToCart(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	item, err := s.repomanager.Items(s.db).GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	ci, err := s.repomanager.CartItems(s.db).Add(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	ci.Item = item

	s.logger.Debug(ctx, "cart item added", "user_id", userID, "item_id", itemID, "quantity", ci.Quantity)
	return ci, nil
}

// RemoveFromCart deletes one of the caller's cart lines and returns it as it
// was. Only the owner may remove a line.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, cartItemID string) (*models.CartItem, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	repo := s.repomanager.CartItems(s.db)

	ci, err := repo.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if ci.UserID != userID {
		return nil, fmt.Errorf("%w: cart item belongs to another user", common.ErrForbidden)
	}

	return repo.Delete(ctx, cartItemID)
}

// Cart lists the caller's cart joined with the catalog.
func (s *CartService) Cart(ctx context.Context, userID string) ([]*models.CartItem, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	return s.repomanager.CartItems(s.db).ListByUser(ctx, userID)
}

// ClearCartItems deletes the given lines of userID's cart. Lines that are
// already gone are not an error.
func (s *CartService) ClearCartItems(ctx context.Context, userID string, ids []string) error {
	_, err := s.repomanager.CartItems(s.db).DeleteByIDs(ctx, userID, ids)
	return err
}
