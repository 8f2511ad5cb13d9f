package graphql

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	CodeInternal = "INTERNAL"
)

// Error is a resolver error carrying a stable machine-readable code.
type Error struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":      e.Code,
		"retryable": e.Retryable,
	}
}

// Checked in order; the first match wins.
var errorCodes = []struct {
	err       error
	code      string
	retryable bool
}{
	{domain.ErrUnauthenticated, "UNAUTHENTICATED", false},
	{domain.ErrConcurrentModification, "CONCURRENT_MODIFICATION", true},
	{domain.ErrDuplicateRequest, "DUPLICATE_REQUEST", false},
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY", false},
	{domain.ErrOutOfStock, "OUT_OF_STOCK", false},
	{domain.ErrLineNotFound, "LINE_NOT_FOUND", false},
	{domain.ErrEmptyCart, "EMPTY_CART", false},
	{domain.ErrInvalidVariant, "INVALID_VARIANT", false},
	{domain.ErrAddressNotFound, "ADDRESS_NOT_FOUND", false},
	{domain.ErrInvalidPaymentMethod, "INVALID_PAYMENT_METHOD", false},
	{domain.ErrProductNotFound, "PRODUCT_NOT_FOUND", false},
	{domain.ErrOrderNotFound, "ORDER_NOT_FOUND", false},
	{domain.ErrEmailTaken, "EMAIL_TAKEN", false},
	{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS", false},
	{domain.ErrInvalidInput, "BAD_USER_INPUT", false},
}

// toError maps a business error onto its code, or returns nil when err is
// not a known business error.
func toError(err error) *Error {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return &Error{Code: c.code, Message: err.Error(), Retryable: c.retryable}
		}
	}
	return nil
}

// fail converts err for the client. Unknown errors are logged and hidden.
func (r *Resolver) fail(ctx context.Context, operation string, err error) error {
	if gqlErr := toError(err); gqlErr != nil {
		return gqlErr
	}

	r.logger.Error("resolver failed",
		zap.String("operation", operation),
		zap.String("request_id", requestIDFrom(ctx)),
		zap.Error(err))
	return &Error{Code: CodeInternal, Message: "internal server error"}
}
