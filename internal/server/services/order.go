package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
)

// OrderService is the read side for orders.
type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager) *OrderService {
	return &OrderService{db: db, repomanager: m}
}

// Orders lists the caller's orders, newest first.
func (s *OrderService) Orders(ctx context.Context, userID string) ([]*models.Order, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	return s.repomanager.Orders(s.db).ListByUser(ctx, userID)
}

// Order returns one order to its owner or to an ADMIN.
func (s *OrderService) Order(ctx context.Context, userID, orderID string) (*models.Order, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	order, err := s.repomanager.Orders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == userID {
		return order, nil
	}

	caller, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	if err := auth.RequireOwnerOr(userID, order.UserID, caller.Permissions, auth.PermissionAdmin); err != nil {
		return nil, err
	}
	return order, nil
}
