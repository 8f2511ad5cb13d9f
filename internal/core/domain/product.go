package domain

import (
	"fmt"
	"time"
)

type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	SKU         string
	Brand       string
	CategoryID  string
	Price       Money
	SalePrice   *Money
	Stock       int
	HasVariants bool
	IsActive    bool
	IsFeatured  bool
	Version     int // optimistic locking
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Variant struct {
	ID        string
	ProductID string
	SKU       string
	Name      string
	Size      string
	Color     string
	Capacity  string
	Price     *Money
	SalePrice *Money
	Stock     int
	IsActive  bool
	Version   int // optimistic locking
}

func (p Product) Validate() error {
	if p.Price < 0 {
		return fmt.Errorf("%w: product %s has negative price", ErrInvalidInput, p.ID)
	}
	if p.SalePrice != nil {
		if *p.SalePrice < 0 {
			return fmt.Errorf("%w: product %s has negative sale price", ErrInvalidInput, p.ID)
		}
		if *p.SalePrice > p.Price {
			return fmt.Errorf("%w: product %s sale price exceeds price", ErrInvalidInput, p.ID)
		}
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product %s has negative stock", ErrInvalidInput, p.ID)
	}
	return nil
}

func (v Variant) Validate() error {
	if v.Price != nil && *v.Price < 0 {
		return fmt.Errorf("%w: variant %s has negative price", ErrInvalidInput, v.ID)
	}
	if v.SalePrice != nil && *v.SalePrice < 0 {
		return fmt.Errorf("%w: variant %s has negative sale price", ErrInvalidInput, v.ID)
	}
	if v.Stock < 0 {
		return fmt.Errorf("%w: variant %s has negative stock", ErrInvalidInput, v.ID)
	}
	return nil
}

// ProductQuery is the filter, sort and page of a catalog listing.
type ProductQuery struct {
	CategoryID string
	Brand      string
	MinPrice   *Money
	MaxPrice   *Money
	IsFeatured *bool
	SortBy     string
	Offset     int
	Limit      int
}

// Sortable listing columns. Anything else falls back to newest first.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
	SortByName      = "name"
)

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Image       string
	IsActive    bool
	CreatedAt   time.Time
}
