package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// runStoreContract exercises behaviour every port.Store must share.
func runStoreContract(t *testing.T, store port.Store) {
	t.Run("ProductRoundTrip", func(t *testing.T) { testProductRoundTrip(t, store) })
	t.Run("DecrementStockVersion", func(t *testing.T) { testDecrementStockVersion(t, store) })
	t.Run("CartLines", func(t *testing.T) { testCartLines(t, store) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, store) })
	t.Run("DuplicateOrderNumber", func(t *testing.T) { testDuplicateOrderNumber(t, store) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, store) })
	t.Run("AddressOwnership", func(t *testing.T) { testAddressOwnership(t, store) })
	t.Run("Wishlist", func(t *testing.T) { testWishlist(t, store) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, store) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, store) })
}

func newTestProduct(price domain.Money, sale *domain.Money, stock int) domain.Product {
	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Product{
		ID:          id,
		Name:        "Test product " + id[:8],
		Slug:        "test-product-" + id,
		Description: "test",
		SKU:         "SKU-" + id,
		Brand:       "Acme",
		Price:       price,
		SalePrice:   sale,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testProductRoundTrip(t *testing.T, store port.Store) {
	ctx := context.Background()
	p := newTestProduct(2999, domain.Money(2499).Ptr(), 50)
	p.HasVariants = true
	require.NoError(t, store.UpsertProduct(ctx, p))

	v := domain.Variant{
		ID: uuid.NewString(), ProductID: p.ID, SKU: "SKU-V-" + p.ID, Name: "Large",
		Size: "L", Price: domain.Money(3199).Ptr(), Stock: 3, IsActive: true,
	}
	require.NoError(t, store.UpsertVariant(ctx, v))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Price, got.Price)
	require.NotNil(t, got.SalePrice)
	assert.Equal(t, domain.Money(2499), *got.SalePrice)

	bySlug, err := store.GetProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, p.ID, bySlug.ID)

	gotVariant, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, gotVariant)
	assert.Nil(t, gotVariant.SalePrice)
	require.NotNil(t, gotVariant.Price)
	assert.Equal(t, domain.Money(3199), *gotVariant.Price)

	variants, err := store.ListVariants(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Len(t, variants, 1)

	missing, err := store.GetProduct(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testDecrementStockVersion(t *testing.T, store port.Store) {
	ctx := context.Background()
	p := newTestProduct(1000, nil, 5)
	require.NoError(t, store.UpsertProduct(ctx, p))

	current, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, store.DecrementProductStock(ctx, p.ID, 2, current.Version))

	err = store.DecrementProductStock(ctx, p.ID, 1, current.Version)
	assert.ErrorIs(t, err, port.ErrOptimisticLock, "stale version must be rejected")

	after, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Stock)
	assert.Equal(t, current.Version+1, after.Version)

	err = store.DecrementProductStock(ctx, p.ID, 4, after.Version)
	assert.ErrorIs(t, err, port.ErrOptimisticLock, "stock may not go negative")
}

func testCartLines(t *testing.T, store port.Store) {
	ctx := context.Background()
	userID := uuid.NewString()
	p := newTestProduct(1000, nil, 10)
	require.NoError(t, store.UpsertProduct(ctx, p))

	cart, err := store.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, cart)

	require.NoError(t, store.EnsureCart(ctx, userID))
	require.NoError(t, store.EnsureCart(ctx, userID))

	cart, err = store.GetCart(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.True(t, cart.IsEmpty())

	line := domain.CartLine{
		ID: uuid.NewString(), CartID: cart.ID, ProductID: p.ID, Quantity: 2,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.SaveCartLine(ctx, line))
	line.Quantity = 4
	require.NoError(t, store.SaveCartLine(ctx, line))

	err = store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		locked, err := repo.LockCart(ctx, userID)
		if err != nil {
			return err
		}
		require.Len(t, locked.Lines, 1)
		assert.Equal(t, 4, locked.Lines[0].Quantity)
		require.NotNil(t, locked.Lines[0].Product)
		assert.Equal(t, p.ID, locked.Lines[0].Product.ID)
		assert.Nil(t, locked.Lines[0].Variant)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.ClearCart(ctx, cart.ID))
	cart, err = store.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func testTxRollback(t *testing.T, store port.Store) {
	ctx := context.Background()
	p := newTestProduct(1000, nil, 5)
	require.NoError(t, store.UpsertProduct(ctx, p))
	current, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		if err := repo.DecrementProductStock(ctx, p.ID, 5, current.Version); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock, "rolled back decrement must not persist")
}

func testDuplicateOrderNumber(t *testing.T, store port.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	number := "NOV-TEST-" + uuid.NewString()
	order := domain.Order{
		ID: uuid.NewString(), OrderNumber: number, UserID: uuid.NewString(),
		ShippingAddressID: uuid.NewString(), PaymentMethod: "COD",
		Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending,
		Totals:    domain.Totals{Subtotal: 1000, Shipping: 5000, Tax: 180, Total: 6180},
		CreatedAt: now, UpdatedAt: now,
	}
	order.Lines = []domain.OrderLine{{ID: uuid.NewString(), OrderID: order.ID, ProductID: uuid.NewString(), Quantity: 1, Price: 1000}}
	require.NoError(t, store.CreateOrder(ctx, order))

	dup := order
	dup.ID = uuid.NewString()
	dup.Lines = nil
	assert.ErrorIs(t, store.CreateOrder(ctx, dup), port.ErrDuplicateOrderNumber)

	got, err := store.GetOrder(ctx, order.UserID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.Money(6180), got.Total)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, domain.Money(1000), got.Lines[0].Price)

	other, err := store.GetOrder(ctx, uuid.NewString(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "orders are only visible to their owner")
}

func testDuplicateEmail(t *testing.T, store port.Store) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"
	user := domain.User{ID: uuid.NewString(), Email: email, PasswordHash: "x", Role: domain.RoleCustomer, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, user))

	user.ID = uuid.NewString()
	assert.ErrorIs(t, store.CreateUser(ctx, user), port.ErrDuplicateEmail)

	got, err := store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleCustomer, got.Role)
}

func testAddressOwnership(t *testing.T, store port.Store) {
	ctx := context.Background()
	user := domain.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: domain.RoleCustomer, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, user))

	addr := domain.Address{
		ID: uuid.NewString(), UserID: user.ID, Line1: "1 Main St", City: "Pune",
		PostalCode: "411001", Country: "IN", CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.CreateAddress(ctx, addr))

	got, err := store.GetAddress(ctx, user.ID, addr.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	foreign, err := store.GetAddress(ctx, uuid.NewString(), addr.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	list, err := store.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testWishlist(t *testing.T, store port.Store) {
	ctx := context.Background()
	userID := uuid.NewString()
	p := newTestProduct(1000, nil, 1)
	require.NoError(t, store.UpsertProduct(ctx, p))

	require.NoError(t, store.EnsureWishlist(ctx, userID))
	w, err := store.GetWishlist(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, w)

	require.NoError(t, store.AddWishlistItem(ctx, w.ID, p.ID))
	require.NoError(t, store.AddWishlistItem(ctx, w.ID, p.ID))

	w, err = store.GetWishlist(ctx, userID)
	require.NoError(t, err)
	require.Len(t, w.Items, 1)
	require.NotNil(t, w.Items[0].Product)

	removed, err := store.RemoveWishlistItem(ctx, w.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveWishlistItem(ctx, w.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func testCategories(t *testing.T, store port.Store) {
	ctx := context.Background()
	id := uuid.NewString()
	active := domain.Category{
		ID: id, Name: "Category " + id[:8], Slug: "category-" + id, Description: "things",
		IsActive: true, CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	hidden := active
	hidden.ID, hidden.Slug, hidden.IsActive = uuid.NewString(), "hidden-"+id, false
	require.NoError(t, store.UpsertCategory(ctx, active))
	require.NoError(t, store.UpsertCategory(ctx, hidden))

	got, err := store.GetCategoryBySlug(ctx, active.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)
	assert.Equal(t, active.Name, got.Name)
	assert.Equal(t, "things", got.Description)
	assert.True(t, got.IsActive)

	missing, err := store.GetCategory(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.ListCategories(ctx)
	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, c := range list {
		ids[c.ID] = true
	}
	assert.True(t, ids[active.ID])
	assert.False(t, ids[hidden.ID], "inactive categories are not listed")
}

func testReviews(t *testing.T, store port.Store) {
	ctx := context.Background()
	p := newTestProduct(1000, nil, 1)
	require.NoError(t, store.UpsertProduct(ctx, p))
	user := domain.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", FirstName: "Rita", Role: domain.RoleCustomer, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, user))

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := domain.Review{ID: uuid.NewString(), UserID: user.ID, ProductID: p.ID, Rating: 3, Title: "ok", CreatedAt: base}
	newer := domain.Review{ID: uuid.NewString(), UserID: user.ID, ProductID: p.ID, Rating: 5, Comment: "great", CreatedAt: base.Add(time.Second)}
	require.NoError(t, store.CreateReview(ctx, older))
	require.NoError(t, store.CreateReview(ctx, newer))

	reviews, err := store.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID, "newest first")
	assert.Equal(t, "great", reviews[0].Comment)
	require.NotNil(t, reviews[1].User)
	assert.Equal(t, "Rita", reviews[1].User.FirstName)

	none, err := store.ListReviews(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}
