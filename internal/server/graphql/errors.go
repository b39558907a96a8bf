package graphql

import (
	"errors"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/server/services"
)

// Error codes sent in the "code" extension of a GraphQL error.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeEmailTaken      = "EMAIL_TAKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodePaymentFailed   = "PAYMENT_FAILED"
	CodeInconsistent    = "CHECKOUT_INCONSISTENT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error with a client-facing message and a code.
// graphql-go copies Extensions into the response.
type Error struct {
	Message string
	Code    string
	Extra   map[string]any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	for k, v := range e.Extra {
		ext[k] = v
	}
	return ext
}

var codes = []struct {
	err  error
	code string
}{
	{common.ErrUnauthenticated, CodeUnauthenticated},
	{common.ErrInvalidCredentials, CodeUnauthenticated},
	{common.ErrForbidden, CodeForbidden},
	{common.ErrorNotFound, CodeNotFound},
	{common.ErrValidation, CodeBadUserInput},
	{common.ErrEmailTaken, CodeEmailTaken},
	{common.ErrInvalidOrExpiredToken, CodeInvalidToken},
	{common.ErrInvalidToken, CodeInvalidToken},
	{common.ErrPaymentFailed, CodePaymentFailed},
}

// toError maps a service error to what the client sees. Unknown errors are
// reported as internal without their text. ok is false for those so the
// caller can log the original.
func toError(err error) (out *Error, ok bool) {
	var ie *services.InconsistentCheckoutError
	if errors.As(err, &ie) {
		return &Error{
			Message: "your payment was taken but the order could not be saved; please contact support",
			Code:    CodeInconsistent,
			Extra:   map[string]any{"charge": ie.ChargeID},
		}, false
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return &Error{Message: err.Error(), Code: c.code}, true
		}
	}
	return &Error{Message: common.ErrorInternal.Error(), Code: CodeInternal}, false
}
