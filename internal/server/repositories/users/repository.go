package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error)
	UpdatePermissions(ctx context.Context, userID string, perms auth.PermissionSet) (*models.User, error)
}
