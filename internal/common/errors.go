// Package common defines shared constants and sentinel errors used across
// gophshop layers. Services wrap these values with fmt.Errorf("%w: ...") and
// callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrEmailTaken = errors.New("email already in use")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Identity and access errors.
	ErrUnauthenticated    = errors.New("you must be signed in to do that")
	ErrForbidden          = errors.New("you don't have permission to do that")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Session token errors (bad signature, malformed payload or missing secret).
	ErrInvalidToken = errors.New("invalid token")

	// Password reset errors.
	ErrInvalidOrExpiredToken = errors.New("this token is either invalid or expired")

	// Caller input violates a stated precondition.
	ErrValidation = errors.New("validation error")

	// Checkout errors. ErrInconsistent means money was taken but the order
	// could not be recorded; it must reach operators.
	ErrPaymentFailed = errors.New("payment failed")
	ErrInconsistent  = errors.New("checkout inconsistent: charge captured but order not persisted")
)
