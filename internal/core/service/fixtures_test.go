package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/port"
)

var (
	alice = domain.Principal{UserID: "user-alice", Email: "alice@example.com", Role: domain.RoleCustomer}
	bob   = domain.Principal{UserID: "user-bob", Email: "bob@example.com", Role: domain.RoleCustomer}
)

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	released       []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}

func (m *mockCacheRepo) Ping(ctx context.Context) error { return nil }

// conflictingStore fails every stock decrement as if another writer won.
type conflictingStore struct {
	*storage.MemoryAdapter
}

type conflictingRepo struct {
	port.DatabaseRepository
}

func (conflictingRepo) DecrementProductStock(ctx context.Context, productID string, quantity, version int) error {
	return port.ErrOptimisticLock
}

func (conflictingRepo) DecrementVariantStock(ctx context.Context, variantID string, quantity, version int) error {
	return port.ErrOptimisticLock
}

func (s conflictingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo port.DatabaseRepository) error) error {
	return s.MemoryAdapter.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		return fn(ctx, conflictingRepo{repo})
	})
}

func seedProduct(t *testing.T, store port.Store, price domain.Money, sale *domain.Money, stock int) domain.Product {
	t.Helper()
	now := time.Now()
	id := uuid.NewString()
	p := domain.Product{
		ID: id, Name: "Product " + id[:8], Slug: "product-" + id, SKU: "SKU-" + id,
		Brand: "Acme", Price: price, SalePrice: sale, Stock: stock,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.UpsertProduct(context.Background(), p))
	return p
}

func seedVariant(t *testing.T, store port.Store, product *domain.Product, price, sale *domain.Money, stock int) domain.Variant {
	t.Helper()
	ctx := context.Background()
	if !product.HasVariants {
		product.HasVariants = true
		require.NoError(t, store.UpsertProduct(ctx, *product))
	}
	id := uuid.NewString()
	v := domain.Variant{
		ID: id, ProductID: product.ID, SKU: "SKU-V-" + id, Name: "Variant " + id[:8],
		Price: price, SalePrice: sale, Stock: stock, IsActive: true,
	}
	require.NoError(t, store.UpsertVariant(ctx, v))
	return v
}

func seedAddress(t *testing.T, store port.Store, userID string) domain.Address {
	t.Helper()
	a := domain.Address{
		ID: uuid.NewString(), UserID: userID, FullName: "Test User", Line1: "1 Main St",
		City: "Pune", PostalCode: "411001", Country: "IN", CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateAddress(context.Background(), a))
	return a
}

func newTestCartService(store port.Store, cache port.CacheRepository) *CartService {
	return NewCartService(store, cache, pricing.DefaultPolicy(), zap.NewNop())
}

func newTestOrderService(store port.Store, cache port.CacheRepository) *OrderService {
	return NewOrderService(store, cache, pricing.DefaultPolicy(), DefaultPaymentMethods, zap.NewNop())
}
