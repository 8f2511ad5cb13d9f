package port

import "errors"

var (
	ErrOptimisticLock       = errors.New("optimistic lock conflict")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrDuplicateEmail       = errors.New("duplicate email")
)
