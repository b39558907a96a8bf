// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophshop/internal/server/auth"
)

type User struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Password    string             `json:"-"`
	Permissions auth.PermissionSet `json:"permissions"`

	// ResetToken and ResetTokenExpiry are set by a reset request and cleared
	// together when the token is consumed.
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}
