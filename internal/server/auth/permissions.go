package auth

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophshop/internal/common"
)

// Permission is a capability granted to a user.
type Permission string

const (
	PermissionAdmin            Permission = "ADMIN"
	PermissionUser             Permission = "USER"
	PermissionItemCreate       Permission = "ITEMCREATE"
	PermissionItemUpdate       Permission = "ITEMUPDATE"
	PermissionItemDelete       Permission = "ITEMDELETE"
	PermissionPermissionUpdate Permission = "PERMISSIONUPDATE"
)

// AllPermissions lists every known permission in display order.
var AllPermissions = []Permission{
	PermissionAdmin,
	PermissionUser,
	PermissionItemCreate,
	PermissionItemUpdate,
	PermissionItemDelete,
	PermissionPermissionUpdate,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePermission accepts a permission name case-insensitively.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown permission %q", common.ErrValidation, s)
	}
	return p, nil
}

// PermissionSet is the set of permissions held by a user. Order is kept
// for display; duplicates are dropped by NewPermissionSet.
//
// It is stored in a single text column as a comma separated list.
type PermissionSet []Permission

// DefaultPermissions is what a freshly signed-up user gets.
func DefaultPermissions() PermissionSet { return PermissionSet{PermissionUser} }

// NewPermissionSet validates and de-duplicates perms. An empty result is an
// error: every user holds at least one permission.
func NewPermissionSet(perms ...Permission) (PermissionSet, error) {
	out := make(PermissionSet, 0, len(perms))
	for _, p := range perms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown permission %q", common.ErrValidation, string(p))
		}
		if !out.Has(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: permission set must not be empty", common.ErrValidation)
	}
	return out, nil
}

func (s PermissionSet) Has(p Permission) bool {
	for _, q := range s {
		if q == p {
			return true
		}
	}
	return false
}

// Intersects reports whether s holds at least one of allowed.
func (s PermissionSet) Intersects(allowed ...Permission) bool {
	for _, p := range allowed {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s PermissionSet) Strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = string(p)
	}
	return out
}

// Value implements driver.Valuer.
func (s PermissionSet) Value() (driver.Value, error) {
	return strings.Join(s.Strings(), ","), nil
}

// Scan implements sql.Scanner.
func (s *PermissionSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into PermissionSet", src)
	}

	var out PermissionSet
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		out = append(out, Permission(part))
	}
	*s = out
	return nil
}
