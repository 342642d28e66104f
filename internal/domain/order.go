package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order is the aggregate root: an in-memory state machine rebuilt from its
// event stream. It is never persisted directly; only its events are.
type Order struct {
	id          string
	userID      string
	status      OrderStatus
	items       []OrderItem
	totalAmount decimal.Decimal
	version     int64

	// Events produced but not yet appended to the log.
	uncommitted []Event
}

// NewOrder returns an empty aggregate at version 0.
func NewOrder() *Order {
	return &Order{}
}

func (o *Order) ID() string                   { return o.id }
func (o *Order) UserID() string               { return o.userID }
func (o *Order) Status() OrderStatus          { return o.status }
func (o *Order) Items() []OrderItem           { return o.items }
func (o *Order) TotalAmount() decimal.Decimal { return o.totalAmount }
func (o *Order) Version() int64               { return o.version }

// CreateOrder validates the command and emits OrderCreated at version 1.
// The aggregate id is minted here; the caller reads it back via ID.
func (o *Order) CreateOrder(userID string, items []OrderItem) error {
	if len(items) == 0 {
		return ErrInvalidOrder
	}
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 || !it.UnitPrice.IsPositive() {
			return ErrInvalidItem
		}
		total = total.Add(it.Subtotal())
	}

	ev := OrderCreated{
		Meta:        o.newMeta(uuid.NewString(), EventOrderCreated),
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
	}
	o.record(ev)
	return nil
}

// Pay emits OrderPaid. The order must be in the created state.
func (o *Order) Pay(paymentID string) error {
	if o.status == StatusCancelled {
		return ErrOrderCancelled
	}
	if o.status != StatusCreated {
		return ErrOrderNotCreated
	}
	ev := OrderPaid{
		Meta:      o.newMeta(o.id, EventOrderPaid),
		PaymentID: paymentID,
	}
	o.record(ev)
	return nil
}

// Cancel emits OrderCancelled unless the order is already cancelled.
func (o *Order) Cancel(reason string) error {
	if o.status == StatusCancelled {
		return ErrOrderCancelled
	}
	ev := OrderCancelled{
		Meta:   o.newMeta(o.id, EventOrderCancelled),
		Reason: reason,
	}
	o.record(ev)
	return nil
}

// newMeta stamps the next stream position. For OrderCreated the aggregate id
// does not exist yet, so the caller passes the freshly minted id.
func (o *Order) newMeta(aggregateID, eventType string) Meta {
	return Meta{
		EventID:       uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: AggregateTypeOrder,
		EventType:     eventType,
		Version:       o.version + 1,
		OccurredAt:    time.Now().UTC(),
	}
}

// record applies a newly minted event and tracks it as uncommitted.
func (o *Order) record(ev Event) {
	o.apply(ev)
	o.uncommitted = append(o.uncommitted, ev)
}

// apply is the single state-transition function. Replaying a stream through
// it from a fresh aggregate reproduces live state.
func (o *Order) apply(ev Event) {
	switch e := ev.(type) {
	case OrderCreated:
		o.id = e.Meta.AggregateID
		o.userID = e.UserID
		o.items = e.Items
		o.totalAmount = e.TotalAmount
		o.status = StatusCreated
	case OrderPaid:
		o.status = StatusPaid
	case OrderCancelled:
		o.status = StatusCancelled
	}
	o.version++
}

// Rehydrate replays persisted events in stream order without recording them
// as uncommitted.
func (o *Order) Rehydrate(events []Event) {
	for _, ev := range events {
		o.apply(ev)
	}
}

// UncommittedEvents returns events produced but not yet appended.
func (o *Order) UncommittedEvents() []Event {
	return o.uncommitted
}

// ClearEvents discards the uncommitted list. Call it only after the events
// have been durably appended.
func (o *Order) ClearEvents() {
	o.uncommitted = nil
}
