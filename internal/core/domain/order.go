package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var orderFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransition allows the forward fulfilment step, and cancellation or
// refund from any non-terminal state.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled || to == OrderStatusRefunded {
		return true
	}
	return orderFlow[s] == to
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// OrderLine holds a price frozen at order creation. It is never recomputed.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID string
	Quantity  int
	Price     Money
}

func (l OrderLine) Subtotal() Money {
	return l.Price.Mul(l.Quantity)
}

type Order struct {
	ID                string
	OrderNumber       string
	UserID            string
	ShippingAddressID string
	PaymentMethod     string
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	Lines             []OrderLine
	Discount          Money
	Totals
	CreatedAt time.Time
	UpdatedAt time.Time
}
