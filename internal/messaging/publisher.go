// Package messaging defines the delivery contracts between the outbox relay
// and the broker, and between the broker and the projection.
package messaging

import (
	"context"
	"fmt"

	"github.com/orderflow/ordersvc/internal/domain"
)

// Publisher delivers event envelopes to the broker topic, keyed by aggregate
// id so that partitioning preserves per-aggregate order. Implementations do
// not retry beyond their client's own policy; the outbox relay retries.
type Publisher interface {
	Publish(ctx context.Context, env domain.Envelope) error
}

// Handler consumes one delivered envelope on the read side.
type Handler interface {
	Handle(ctx context.Context, env domain.Envelope) error
}

// PublishError reports a delivery failure for one event. The event is
// already durable in the log; only its visibility to the read side lags.
type PublishError struct {
	EventID string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish event %s: %v", e.EventID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
