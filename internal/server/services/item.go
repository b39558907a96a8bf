package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
)

// ItemInput carries the fields of a new catalog item.
type ItemInput struct {
	Title       string
	Description string
	Image       string
	LargeImage  string
	Price       int64
}

// ItemUpdate holds optional changes; nil fields are left as they are.
type ItemUpdate struct {
	Title       *string
	Description *string
	Image       *string
	LargeImage  *string
	Price       *int64
}

type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewItemService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ItemService {
	return &ItemService{db: db, repomanager: m, logger: logger}
}

func validatePrice(price int64) error {
	switch {
	case price < 0:
		return fmt.Errorf("%w: price must not be negative", common.ErrValidation)
	case price > models.MaxAmount:
		return fmt.Errorf("%w: price must not exceed %d", common.ErrValidation, models.MaxAmount)
	}
	return nil
}

// CreateItem adds a catalog item owned by the caller.
func (s *ItemService) CreateItem(ctx context.Context, userID string, in ItemInput) (*models.Item, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	item := &models.Item{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Image:       in.Image,
		LargeImage:  in.LargeImage,
		Price:       in.Price,
		UserID:      userID,
	}

	item, err := s.repomanager.Items(s.db).Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("error creating item: %w", err)
	}
	return item, nil
}

// UpdateItem edits an item. Allowed for its owner and for ADMIN or ITEMUPDATE.
func (s *ItemService) UpdateItem(ctx context.Context, userID, itemID string, upd ItemUpdate) (*models.Item, error) {
	item, err := s.authorize(ctx, userID, itemID, auth.PermissionItemUpdate)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
		}
		item.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Image != nil {
		item.Image = *upd.Image
	}
	if upd.LargeImage != nil {
		item.LargeImage = *upd.LargeImage
	}
	if upd.Price != nil {
		if err := validatePrice(*upd.Price); err != nil {
			return nil, err
		}
		item.Price = *upd.Price
	}

	return s.repomanager.Items(s.db).Update(ctx, item)
}

// DeleteItem removes an item. Allowed for its owner and for ADMIN or ITEMDELETE.
func (s *ItemService) DeleteItem(ctx context.Context, userID, itemID string) (*models.Item, error) {
	if _, err := s.authorize(ctx, userID, itemID, auth.PermissionItemDelete); err != nil {
		return nil, err
	}

	item, err := s.repomanager.Items(s.db).Delete(ctx, itemID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item deleted", "item_id", itemID, "by", userID)
	return item, nil
}

// authorize loads the item and checks owner OR ADMIN OR extra.
func (s *ItemService) authorize(ctx context.Context, userID, itemID string, extra auth.Permission) (*models.Item, error) {
	if err := auth.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	item, err := s.repomanager.Items(s.db).GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.UserID == userID {
		return item, nil
	}

	caller, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	if err := auth.RequireOwnerOr(userID, item.UserID, caller.Permissions, auth.PermissionAdmin, extra); err != nil {
		return nil, err
	}
	return item, nil
}
