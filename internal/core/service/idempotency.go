package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type ctxKey string

const idempotencyCtxKey ctxKey = "idempotency_key"

// WithIdempotencyKey attaches a client supplied dedupe key to ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyCtxKey, key)
}

func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyCtxKey).(string)
	return key
}

// idempotencyGuard rejects a second mutation carrying the same key within
// the cache TTL. Requests without a key pass straight through.
type idempotencyGuard struct {
	cache  port.CacheRepository
	logger *zap.Logger
}

func newIdempotencyGuard(cache port.CacheRepository, logger *zap.Logger) *idempotencyGuard {
	return &idempotencyGuard{cache: cache, logger: logger}
}

func (g *idempotencyGuard) run(ctx context.Context, userID, operation string, fn func() error) error {
	key := IdempotencyKeyFrom(ctx)
	if key == "" || g.cache == nil {
		return fn()
	}

	cacheKey := fmt.Sprintf("idempotency:%s:%s:%s", userID, operation, key)
	ok, err := g.cache.SetIdempotency(ctx, cacheKey)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateRequest
	}

	if err := fn(); err != nil {
		if relErr := g.cache.ReleaseIdempotency(context.WithoutCancel(ctx), cacheKey); relErr != nil {
			g.logger.Warn("failed to release idempotency key",
				zap.String("key", cacheKey), zap.Error(relErr))
		}
		return err
	}
	return nil
}
