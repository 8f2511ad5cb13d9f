package domain

import "errors"

var (
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrOutOfStock             = errors.New("out of stock")
	ErrLineNotFound           = errors.New("cart line not found")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidVariant         = errors.New("invalid variant")
	ErrAddressNotFound        = errors.New("address not found")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrProductNotFound        = errors.New("product not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrDuplicateRequest       = errors.New("duplicate request")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
)
