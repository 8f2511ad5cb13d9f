package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Policy holds the order totals business constants.
type Policy struct {
	// Subtotals strictly above this ship free.
	FreeShippingThreshold domain.Money
	ShippingFee           domain.Money
	TaxRate               decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: 50000,
		ShippingFee:           5000,
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

func (p Policy) Shipping(subtotal domain.Money) domain.Money {
	if subtotal > p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}

// Tax is rounded half away from zero to the minor unit.
func (p Policy) Tax(subtotal domain.Money) domain.Money {
	return domain.Money(decimal.NewFromInt(int64(subtotal)).Mul(p.TaxRate).Round(0).IntPart())
}

func (p Policy) Totals(subtotal domain.Money) domain.Totals {
	shipping := p.Shipping(subtotal)
	tax := p.Tax(subtotal)
	return domain.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}

// Snapshot prices every line of the cart against its current product and
// variant. A line that no longer resolves, such as one whose variant was
// deactivated after it was added, stays in the snapshot marked unavailable
// and counts towards neither the subtotal nor the item count.
func (p Policy) Snapshot(cart domain.Cart) domain.CartSnapshot {
	snap := domain.CartSnapshot{
		CartID: cart.ID,
		UserID: cart.UserID,
		Lines:  make([]domain.SnapshotLine, 0, len(cart.Lines)),
	}

	var subtotal domain.Money
	for _, line := range cart.Lines {
		unit, err := LinePrice(line)
		if err != nil {
			snap.Lines = append(snap.Lines, domain.SnapshotLine{Line: line, Unavailable: err})
			continue
		}
		lineSubtotal := unit.Mul(line.Quantity)
		snap.Lines = append(snap.Lines, domain.SnapshotLine{
			Line:      line,
			UnitPrice: unit,
			Subtotal:  lineSubtotal,
		})
		subtotal += lineSubtotal
		snap.ItemCount += line.Quantity
	}

	snap.Totals = p.Totals(subtotal)
	return snap
}

// LinePrice resolves the unit price of a loaded cart line.
func LinePrice(line domain.CartLine) (domain.Money, error) {
	if line.Product == nil {
		return 0, domain.ErrProductNotFound
	}
	if line.VariantID != "" && line.Variant == nil {
		return 0, domain.ErrInvalidVariant
	}
	return ResolvePrice(*line.Product, line.Variant)
}

// LineStock resolves the stock bound of a loaded cart line.
func LineStock(line domain.CartLine) int {
	if line.Product == nil {
		return 0
	}
	return ResolveStock(*line.Product, line.Variant)
}
