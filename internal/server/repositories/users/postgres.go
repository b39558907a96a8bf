package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const userColumns = `id, name, email, password, permissions, reset_token, reset_token_expiry, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		resetToken  sql.NullString
		resetExpiry sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Permissions, &resetToken, &resetExpiry, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = &resetExpiry.Time
	}
	return u, nil
}

func wrap(err error) error {
	if dbx.NoRow(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password, permissions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Password, user.Permissions).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	query :=
		`UPDATE users SET reset_token = $2, reset_token_expiry = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userID, token, expiry)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

// GetByResetToken finds the user holding token whose expiry is still after
// now.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE reset_token = $1 AND reset_token_expiry > $2
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

// ConsumeResetToken sets the new password and clears the reset fields in one
// statement. The WHERE clause re-checks the token, so a second use of the same
// token matches no row and returns common.ErrorNotFound.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	query :=
		`UPDATE users SET password = $2, reset_token = NULL, reset_token_expiry = NULL
		 WHERE reset_token = $1 AND reset_token_expiry > $3
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, token, passwordHash, now))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdatePermissions(ctx context.Context, userID string, perms auth.PermissionSet) (*models.User, error) {
	query :=
		`UPDATE users SET permissions = $2
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, userID, perms))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}
