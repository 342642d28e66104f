package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(productID string, qty int64, price string) OrderItem {
	return OrderItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func TestCreateOrder(t *testing.T) {
	o := NewOrder()
	err := o.CreateOrder("user-123", []OrderItem{item("p1", 2, "100.00")})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID())
	assert.Equal(t, "user-123", o.UserID())
	assert.Equal(t, StatusCreated, o.Status())
	assert.Equal(t, int64(1), o.Version())
	assert.True(t, o.TotalAmount().Equal(decimal.RequireFromString("200.00")), "total %s", o.TotalAmount())

	events := o.UncommittedEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(OrderCreated)
	require.True(t, ok)
	assert.Equal(t, EventOrderCreated, created.Meta.EventType)
	assert.Equal(t, AggregateTypeOrder, created.Meta.AggregateType)
	assert.Equal(t, o.ID(), created.Meta.AggregateID)
	assert.Equal(t, int64(1), created.Meta.Version)
	assert.NotEmpty(t, created.Meta.EventID)
}

func TestCreateOrderExactDecimalTotal(t *testing.T) {
	// 3 x 0.10 must be exactly 0.30, not a float approximation.
	o := NewOrder()
	err := o.CreateOrder("u", []OrderItem{
		item("p1", 3, "0.10"),
		item("p2", 1, "19.99"),
	})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount().Equal(decimal.RequireFromString("20.29")), "total %s", o.TotalAmount())
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	for name, items := range map[string][]OrderItem{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			o := NewOrder()
			err := o.CreateOrder("u", items)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			assert.Empty(t, o.UncommittedEvents())
			assert.Equal(t, int64(0), o.Version())
		})
	}
}

func TestCreateOrderRejectsBadItem(t *testing.T) {
	o := NewOrder()
	err := o.CreateOrder("u", []OrderItem{item("p1", 0, "1.00")})
	assert.ErrorIs(t, err, ErrInvalidItem)

	err = o.CreateOrder("u", []OrderItem{item("p1", 1, "0")})
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Empty(t, o.UncommittedEvents())
}

func TestPayTransitions(t *testing.T) {
	o := NewOrder()
	require.NoError(t, o.CreateOrder("u", []OrderItem{item("p1", 1, "5.00")}))
	require.NoError(t, o.Pay("pay-1"))

	assert.Equal(t, StatusPaid, o.Status())
	assert.Equal(t, int64(2), o.Version())
	require.Len(t, o.UncommittedEvents(), 2)
	paid := o.UncommittedEvents()[1].(OrderPaid)
	assert.Equal(t, "pay-1", paid.PaymentID)
	assert.Equal(t, int64(2), paid.Meta.Version)

	// Paying twice is rejected.
	assert.ErrorIs(t, o.Pay("pay-2"), ErrOrderNotCreated)
}

func TestCancelTransitions(t *testing.T) {
	o := NewOrder()
	require.NoError(t, o.CreateOrder("u", []OrderItem{item("p1", 1, "5.00")}))
	require.NoError(t, o.Cancel("changed my mind"))

	assert.Equal(t, StatusCancelled, o.Status())
	assert.ErrorIs(t, o.Cancel("again"), ErrOrderCancelled)
	assert.ErrorIs(t, o.Pay("pay-1"), ErrOrderCancelled)
}

func TestRehydrateReproducesState(t *testing.T) {
	o := NewOrder()
	require.NoError(t, o.CreateOrder("user-123", []OrderItem{item("p1", 2, "100.00")}))
	require.NoError(t, o.Pay("pay-1"))

	replayed := NewOrder()
	replayed.Rehydrate(o.UncommittedEvents())

	assert.Equal(t, o.ID(), replayed.ID())
	assert.Equal(t, o.UserID(), replayed.UserID())
	assert.Equal(t, o.Status(), replayed.Status())
	assert.Equal(t, o.Version(), replayed.Version())
	assert.True(t, o.TotalAmount().Equal(replayed.TotalAmount()))
	assert.Empty(t, replayed.UncommittedEvents(), "rehydrate must not record events")
}

func TestClearEvents(t *testing.T) {
	o := NewOrder()
	require.NoError(t, o.CreateOrder("u", []OrderItem{item("p1", 1, "1.00")}))
	require.NotEmpty(t, o.UncommittedEvents())
	o.ClearEvents()
	assert.Empty(t, o.UncommittedEvents())
	assert.Equal(t, int64(1), o.Version(), "clearing events must not touch state")
}
