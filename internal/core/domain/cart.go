package domain

import "time"

type Cart struct {
	ID        string
	UserID    string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is one (product, variant?, quantity) entry. Product and Variant
// are loaded alongside the line so prices always reflect the live catalog.
type CartLine struct {
	ID        string
	CartID    string
	ProductID string
	VariantID string // empty when no variant is selected
	Quantity  int
	Product   *Product
	Variant   *Variant
	CreatedAt time.Time
}

// FindLine returns the index of the line for (productID, variantID) or -1.
func (c *Cart) FindLine(productID, variantID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID && line.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

type SnapshotLine struct {
	Line      CartLine
	UnitPrice Money
	Subtotal  Money
	// Unavailable is why the line can no longer be priced; nil for a
	// purchasable line. Unavailable lines carry no price.
	Unavailable error
}

func (l SnapshotLine) Available() bool {
	return l.Unavailable == nil
}

// Totals is the outcome of the order totals policy for one subtotal.
type Totals struct {
	Subtotal Money
	Shipping Money
	Tax      Money
	Total    Money
}

// CartSnapshot is derived on every read and never stored.
type CartSnapshot struct {
	CartID    string
	UserID    string
	Lines     []SnapshotLine
	ItemCount int
	Totals
}
