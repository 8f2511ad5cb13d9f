// Package service implements the storefront use cases on top of the
// repository ports. Each mutating operation runs in one storage transaction.
package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

func requireUser(principal domain.Principal) error {
	if principal.UserID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// translateStoreErr maps storage conflicts onto the retryable domain error.
func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, port.ErrOptimisticLock) && !errors.Is(err, domain.ErrConcurrentModification) {
		return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
	}
	return err
}
