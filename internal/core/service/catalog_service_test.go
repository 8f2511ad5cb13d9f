package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCatalog_GetProduct(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryAdapter()
	p := seedProduct(t, store, 599, domain.Money(399).Ptr(), 0)
	active := seedVariant(t, store, &p, nil, nil, 5)
	inactive := seedVariant(t, store, &p, nil, nil, 5)
	inactive.IsActive = false
	require.NoError(t, store.UpsertVariant(ctx, inactive))
	svc := NewCatalogService(store)

	view, err := svc.GetProduct(ctx, p.ID, "")
	require.NoError(t, err)
	require.NotNil(t, view)
	require.Len(t, view.Variants, 1)
	assert.Equal(t, active.ID, view.Variants[0].ID)

	bySlug, err := svc.GetProduct(ctx, "", p.Slug)
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, p.ID, bySlug.ID)

	missing, err := svc.GetProduct(ctx, "missing", "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.GetProduct(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalog_HidesInactiveProducts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryAdapter()
	p := seedProduct(t, store, 1000, nil, 1)
	p.IsActive = false
	require.NoError(t, store.UpsertProduct(ctx, p))
	svc := NewCatalogService(store)

	view, err := svc.GetProduct(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Nil(t, view)

	page, err := svc.ListProducts(ctx, 1, 10, domain.ProductQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCatalog_ListProductsPaging(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryAdapter()
	for i := 0; i < 5; i++ {
		seedProduct(t, store, domain.Money(1000*(i+1)), nil, 1)
	}
	svc := NewCatalogService(store)

	first, err := svc.ListProducts(ctx, 1, 2, domain.ProductQuery{SortBy: domain.SortByPrice})
	require.NoError(t, err)
	assert.Equal(t, 5, first.Total)
	assert.True(t, first.HasMore)
	require.Len(t, first.Products, 2)
	assert.Equal(t, domain.Money(5000), first.Products[0].Price)

	last, err := svc.ListProducts(ctx, 3, 2, domain.ProductQuery{SortBy: domain.SortByPrice})
	require.NoError(t, err)
	assert.False(t, last.HasMore)
	assert.Len(t, last.Products, 1)

	defaults, err := svc.ListProducts(ctx, 0, 0, domain.ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, defaultPageSize, defaults.PageSize)

	capped, err := svc.ListProducts(ctx, 1, 1000, domain.ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, capped.PageSize)
}

func TestCatalog_Featured(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryAdapter()
	featured := seedProduct(t, store, 1000, nil, 1)
	featured.IsFeatured = true
	require.NoError(t, store.UpsertProduct(ctx, featured))
	seedProduct(t, store, 2000, nil, 1)
	svc := NewCatalogService(store)

	list, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, featured.ID, list[0].ID)
}

func TestCatalog_Categories(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryAdapter()
	now := time.Now()
	require.NoError(t, store.UpsertCategory(ctx, domain.Category{ID: "c-fashion", Name: "Fashion", Slug: "fashion", IsActive: true, CreatedAt: now}))
	require.NoError(t, store.UpsertCategory(ctx, domain.Category{ID: "c-audio", Name: "Audio", Slug: "audio", IsActive: true, CreatedAt: now}))
	require.NoError(t, store.UpsertCategory(ctx, domain.Category{ID: "c-old", Name: "Archive", Slug: "archive", CreatedAt: now}))
	svc := NewCatalogService(store)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Audio", categories[0].Name)
	assert.Equal(t, "Fashion", categories[1].Name)

	byID, err := svc.Category(ctx, "c-fashion", "")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "fashion", byID.Slug)

	bySlug, err := svc.Category(ctx, "", "audio")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "c-audio", bySlug.ID)

	inactive, err := svc.Category(ctx, "c-old", "")
	require.NoError(t, err)
	assert.Nil(t, inactive)

	_, err = svc.Category(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
