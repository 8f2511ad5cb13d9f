package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Conversions(t *testing.T) {
	m, err := MoneyFromString("499.99")
	require.NoError(t, err)
	assert.Equal(t, Money(49999), m)
	assert.Equal(t, "499.99", m.String())
	assert.Equal(t, 499.99, m.Float64())

	assert.Equal(t, Money(50001), MoneyFromFloat(500.01))
	assert.Equal(t, Money(10), MoneyFromDecimal(decimal.RequireFromString("0.095")))

	_, err = MoneyFromString("abc")
	assert.Error(t, err)
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransition(OrderStatusConfirmed))
	assert.True(t, OrderStatusConfirmed.CanTransition(OrderStatusProcessing))
	assert.True(t, OrderStatusProcessing.CanTransition(OrderStatusShipped))
	assert.True(t, OrderStatusShipped.CanTransition(OrderStatusDelivered))

	assert.False(t, OrderStatusPending.CanTransition(OrderStatusShipped))
	assert.False(t, OrderStatusShipped.CanTransition(OrderStatusPending))

	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped} {
		assert.True(t, s.CanTransition(OrderStatusCancelled), s)
		assert.True(t, s.CanTransition(OrderStatusRefunded), s)
	}

	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded} {
		assert.True(t, s.IsTerminal())
		assert.False(t, s.CanTransition(OrderStatusCancelled), s)
	}
}

func TestProduct_Validate(t *testing.T) {
	assert.NoError(t, Product{ID: "p", Price: 100, SalePrice: Money(80).Ptr(), Stock: 1}.Validate())
	assert.ErrorIs(t, Product{ID: "p", Price: 100, SalePrice: Money(120).Ptr()}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Product{ID: "p", Price: -1}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Product{ID: "p", Price: 1, Stock: -1}.Validate(), ErrInvalidInput)

	assert.NoError(t, Variant{ID: "v", Price: Money(5).Ptr()}.Validate())
	assert.ErrorIs(t, Variant{ID: "v", SalePrice: Money(-5).Ptr()}.Validate(), ErrInvalidInput)
}

func TestCart_FindLine(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{ProductID: "p1"},
		{ProductID: "p1", VariantID: "v1"},
	}}

	assert.Equal(t, 0, cart.FindLine("p1", ""))
	assert.Equal(t, 1, cart.FindLine("p1", "v1"))
	assert.Equal(t, -1, cart.FindLine("p2", ""))
	assert.False(t, cart.IsEmpty())
}

func TestReview_Validate(t *testing.T) {
	for _, rating := range []int{1, 3, 5} {
		assert.NoError(t, Review{Rating: rating}.Validate(), "rating %d", rating)
	}
	for _, rating := range []int{0, 6, -1} {
		assert.ErrorIs(t, Review{Rating: rating}.Validate(), ErrInvalidInput, "rating %d", rating)
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, ReviewSummary{}, Summarize(nil))
	assert.Equal(t, ReviewSummary{Average: 4.5, Count: 2}, Summarize([]Review{{Rating: 4}, {Rating: 5}}))
}
