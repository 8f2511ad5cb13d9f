package service

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	featuredListLimit = 10
)

// ProductView is a product with the active variants a shopper may pick.
type ProductView struct {
	domain.Product
	Variants []domain.Variant
}

type ProductPage struct {
	Products []ProductView
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

type CatalogService struct {
	store port.Store
}

func NewCatalogService(store port.Store) *CatalogService {
	return &CatalogService{store: store}
}

// GetProduct looks a product up by id, or by slug when id is empty. Unknown
// and inactive products yield nil.
func (s *CatalogService) GetProduct(ctx context.Context, id, slug string) (*ProductView, error) {
	var (
		product *domain.Product
		err     error
	)
	switch {
	case id != "":
		product, err = s.store.GetProduct(ctx, id)
	case slug != "":
		product, err = s.store.GetProductBySlug(ctx, slug)
	default:
		return nil, fmt.Errorf("%w: id or slug is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, nil
	}

	view, err := s.withVariants(ctx, *product)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListProducts pages through active products. page is 1-based.
func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int, query domain.ProductQuery) (ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize

	products, total, err := s.store.ListProducts(ctx, query)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	views, err := s.viewsOf(ctx, products)
	if err != nil {
		return ProductPage{}, err
	}

	return ProductPage{
		Products: views,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  query.Offset+len(products) < total,
	}, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]ProductView, error) {
	featured := true
	products, _, err := s.store.ListProducts(ctx, domain.ProductQuery{IsFeatured: &featured, Limit: featuredListLimit})
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return s.viewsOf(ctx, products)
}

// Categories lists the active categories.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Category looks a category up by id, or by slug when id is empty. Unknown
// and inactive categories yield nil.
func (s *CatalogService) Category(ctx context.Context, id, slug string) (*domain.Category, error) {
	var (
		category *domain.Category
		err      error
	)
	switch {
	case id != "":
		category, err = s.store.GetCategory(ctx, id)
	case slug != "":
		category, err = s.store.GetCategoryBySlug(ctx, slug)
	default:
		return nil, fmt.Errorf("%w: id or slug is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil || !category.IsActive {
		return nil, nil
	}
	return category, nil
}

// ActiveVariants lists the selectable variants of a product.
func (s *CatalogService) ActiveVariants(ctx context.Context, product domain.Product) ([]domain.Variant, error) {
	view, err := s.withVariants(ctx, product)
	if err != nil {
		return nil, err
	}
	return view.Variants, nil
}

func (s *CatalogService) viewsOf(ctx context.Context, products []domain.Product) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		view, err := s.withVariants(ctx, p)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CatalogService) withVariants(ctx context.Context, product domain.Product) (ProductView, error) {
	view := ProductView{Product: product}
	if !product.HasVariants {
		return view, nil
	}

	variants, err := s.store.ListVariants(ctx, product.ID, true)
	if err != nil {
		return ProductView{}, fmt.Errorf("list variants: %w", err)
	}
	view.Variants = variants
	return view, nil
}
