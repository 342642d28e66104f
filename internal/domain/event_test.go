package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	occurred := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	meta := func(eventType string, version int64) Meta {
		return Meta{
			EventID:       "ev-" + eventType,
			AggregateID:   "order-1",
			AggregateType: AggregateTypeOrder,
			EventType:     eventType,
			Version:       version,
			OccurredAt:    occurred,
		}
	}

	events := []Event{
		OrderCreated{
			Meta:        meta(EventOrderCreated, 1),
			UserID:      "user-123",
			Items:       []OrderItem{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")}},
			TotalAmount: decimal.RequireFromString("200.00"),
		},
		OrderPaid{Meta: meta(EventOrderPaid, 2), PaymentID: "pay-1"},
		OrderCancelled{Meta: meta(EventOrderCancelled, 3), Reason: "out of stock"},
	}

	for _, ev := range events {
		env, err := Encode(ev)
		require.NoError(t, err)
		assert.Equal(t, ev.EventMeta(), env.Meta)

		got, err := Decode(env)
		require.NoError(t, err)
		assert.Equal(t, ev.EventMeta(), got.EventMeta())

		switch want := ev.(type) {
		case OrderCreated:
			created := got.(OrderCreated)
			assert.Equal(t, want.UserID, created.UserID)
			assert.True(t, want.TotalAmount.Equal(created.TotalAmount))
			require.Len(t, created.Items, 1)
			assert.True(t, want.Items[0].UnitPrice.Equal(created.Items[0].UnitPrice))
		case OrderPaid:
			assert.Equal(t, want.PaymentID, got.(OrderPaid).PaymentID)
		case OrderCancelled:
			assert.Equal(t, want.Reason, got.(OrderCancelled).Reason)
		}
	}
}

func TestDecodeUnknownEventType(t *testing.T) {
	_, err := Decode(Envelope{
		Meta:    Meta{EventType: "order.shipped"},
		Payload: []byte(`{}`),
	})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
