// Package services contains server-side business logic. This file implements
// UserService: signup, signin, password reset and permission management.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/config"
	"github.com/dmitrijs2005/gophshop/internal/server/mailer"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
)

// AuthResult is returned by every flow that signs a user in. The caller
// hands Token to the client as the session cookie.
type AuthResult struct {
	User  *models.User
	Token string
}

// SuccessMessage is the acknowledgement returned by flows with no entity.
type SuccessMessage struct {
	Message string `json:"message"`
}

// UserService provides account operations:
//   - Signup / Signin / Signout
//   - RequestReset / ResetPassword
//   - UpdatePermissions
//   - Me, Authenticate for request session resolution
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	mailer      mailer.Sender
	frontendURL string
	logger      logging.Logger
	now         func() time.Time
}

// NewUserService wires a UserService. The token secret comes from cfg and is
// fixed for the lifetime of the service.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, sender mailer.Sender, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      auth.NewTokenIssuer(cfg.SecretKey),
		mailer:      sender,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a session token to a user id.
func (s *UserService) Authenticate(token string) (string, error) {
	return s.tokens.Parse(token)
}

func (s *UserService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:        name,
		Email:       email,
		Password:    hash,
		Permissions: auth.DefaultPermissions(),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return s.issue(user)
}

// Signin checks credentials. An unknown email and a wrong password produce
// the same error.
func (s *UserService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(password, user.Password) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Signout has nothing to revoke server side; the transport drops the cookie.
func (s *UserService) Signout(ctx context.Context) *SuccessMessage {
	return &SuccessMessage{Message: "Goodbye!"}
}

// Me returns the signed-in user, or nil for an anonymous caller.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequestReset stores a fresh one-hour reset token on the user and mails a
// reset link. Mail delivery problems are logged and not returned.
func (s *UserService) RequestReset(ctx context.Context, email string) (*SuccessMessage, error) {
	email = common.NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: no such user found for email %s", common.ErrorNotFound, email)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	token, err := common.MakeRandHexString(common.ResetTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	expiry := s.now().Add(common.ResetTokenValidity)

	if err := repo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return nil, fmt.Errorf("error saving reset token: %w", err)
	}

	msg, err := mailer.ResetPasswordEmail(user.Email, s.frontendURL, token)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error(ctx, "reset email not delivered", "user_id", user.ID, "error", err)
	}

	return &SuccessMessage{Message: "Thanks!"}, nil
}

// ResetPassword consumes a reset token. The token is cleared by the same
// statement that sets the new password, so it works at most once.
func (s *UserService) ResetPassword(ctx context.Context, token, password, confirmPassword string) (*AuthResult, error) {
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: your passwords don't match", common.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if token == "" {
		return nil, common.ErrInvalidOrExpiredToken
	}

	now := s.now()
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByResetToken(ctx, token, now); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("error loading reset token: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := repo.ConsumeResetToken(ctx, token, hash, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("error saving password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return s.issue(user)
}

// UpdatePermissions replaces targetID's permission set. The caller needs
// ADMIN or PERMISSIONUPDATE.
func (s *UserService) UpdatePermissions(ctx context.Context, callerID, targetID string, perms []auth.Permission) (*models.User, error) {
	if err := auth.RequireAuthenticated(callerID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	caller, err := repo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if err := auth.RequirePermission(caller.Permissions, auth.PermissionAdmin, auth.PermissionPermissionUpdate); err != nil {
		return nil, err
	}

	set, err := auth.NewPermissionSet(perms...)
	if err != nil {
		return nil, err
	}

	user, err := repo.UpdatePermissions(ctx, targetID, set)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "permissions updated", "user_id", targetID, "by", callerID, "permissions", set.Strings())
	return user, nil
}
