package auth

import (
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
)

// RequireAuthenticated fails with common.ErrUnauthenticated when no user is
// signed in.
func RequireAuthenticated(userID string) error {
	if userID == "" {
		return common.ErrUnauthenticated
	}
	return nil
}

// RequirePermission fails with common.ErrForbidden unless have holds at
// least one of allowed.
func RequirePermission(have PermissionSet, allowed ...Permission) error {
	if !have.Intersects(allowed...) {
		return fmt.Errorf("%w: need one of %v", common.ErrForbidden, allowed)
	}
	return nil
}

// RequireOwnerOr passes when userID owns the resource or holds one of allowed.
func RequireOwnerOr(userID, ownerID string, have PermissionSet, allowed ...Permission) error {
	if err := RequireAuthenticated(userID); err != nil {
		return err
	}
	if ownerID != "" && userID == ownerID {
		return nil
	}
	return RequirePermission(have, allowed...)
}
