// Package pricing resolves the effective price and stock of catalog items and
// applies the order totals policy. Everything here is a pure function of its
// inputs.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

var hundred = decimal.NewFromInt(100)

// ResolvePrice returns the unit price for a product with an optional variant.
//
// With a variant the precedence is variant sale price, variant price, product
// sale price, product price. Without one it is product sale price, then
// product price. A variant of another product, or an inactive variant, fails
// with ErrInvalidVariant.
func ResolvePrice(product domain.Product, variant *domain.Variant) (domain.Money, error) {
	if variant != nil {
		if err := checkVariant(product, *variant); err != nil {
			return 0, err
		}
		switch {
		case variant.SalePrice != nil:
			return *variant.SalePrice, nil
		case variant.Price != nil:
			return *variant.Price, nil
		}
	}
	if product.SalePrice != nil {
		return *product.SalePrice, nil
	}
	return product.Price, nil
}

// ResolveStock returns the stock that bounds a cart line.
func ResolveStock(product domain.Product, variant *domain.Variant) int {
	if variant != nil {
		return variant.Stock
	}
	return product.Stock
}

// ResolveDiscountPercent rounds half up. A free original price has no
// discount to express.
func ResolveDiscountPercent(original, effective domain.Money) int {
	if original <= 0 || effective >= original {
		return 0
	}
	return int(decimal.NewFromInt(int64(original - effective)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(original))).
		Round(0).
		IntPart())
}

// ListPrice is the pre-sale price shown struck through next to the
// effective price.
func ListPrice(product domain.Product, variant *domain.Variant) domain.Money {
	if variant != nil && variant.Price != nil {
		return *variant.Price
	}
	return product.Price
}

func checkVariant(product domain.Product, variant domain.Variant) error {
	if variant.ProductID != product.ID {
		return fmt.Errorf("%w: variant %s does not belong to product %s", domain.ErrInvalidVariant, variant.ID, product.ID)
	}
	if !variant.IsActive {
		return fmt.Errorf("%w: variant %s is inactive", domain.ErrInvalidVariant, variant.ID)
	}
	return nil
}
