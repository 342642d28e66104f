// Package domain holds the order aggregate and its domain events.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type recorded on every order event.
const AggregateTypeOrder = "Order"

// Event type discriminators for order domain events.
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
)

// Meta carries the identity and position of an event in its aggregate's
// stream. Version is 1-based with no gaps per aggregate.
type Meta struct {
	EventID       string    `json:"event_id"`
	AggregateID   string    `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	EventType     string    `json:"event_type"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Event is the closed union of order domain events. Only the variants in
// this package satisfy it.
type Event interface {
	EventMeta() Meta
	isOrderEvent()
}

// OrderItem is a line item on an order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price, exactly.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// OrderCreated records the creation of an order with its items and total.
type OrderCreated struct {
	Meta        Meta            `json:"-"`
	UserID      string          `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (e OrderCreated) EventMeta() Meta { return e.Meta }
func (OrderCreated) isOrderEvent()     {}

// OrderPaid records a successful payment against an order.
type OrderPaid struct {
	Meta      Meta   `json:"-"`
	PaymentID string `json:"payment_id"`
}

func (e OrderPaid) EventMeta() Meta { return e.Meta }
func (OrderPaid) isOrderEvent()     {}

// OrderCancelled records the cancellation of an order.
type OrderCancelled struct {
	Meta   Meta   `json:"-"`
	Reason string `json:"reason"`
}

func (e OrderCancelled) EventMeta() Meta { return e.Meta }
func (OrderCancelled) isOrderEvent()     {}

// Envelope is the stored and wire representation of an event: the metadata
// columns plus the serialized variant payload.
type Envelope struct {
	Meta
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps an event into its envelope. The round trip through Encode and
// Decode reproduces the original event.
func Encode(ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", ev.EventMeta().EventType, err)
	}
	return Envelope{Meta: ev.EventMeta(), Payload: payload}, nil
}

// Decode reconstructs the event variant named by the envelope's event type.
// Unknown event types return ErrUnknownEventType.
func Decode(env Envelope) (Event, error) {
	switch env.EventType {
	case EventOrderCreated:
		var e OrderCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		e.Meta = env.Meta
		return e, nil
	case EventOrderPaid:
		var e OrderPaid
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		e.Meta = env.Meta
		return e, nil
	case EventOrderCancelled:
		var e OrderCancelled
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		e.Meta = env.Meta
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.EventType)
	}
}
