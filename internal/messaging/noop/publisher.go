package noop

import (
	"context"

	"github.com/orderflow/ordersvc/internal/domain"
)

// Publisher is a no-op Publisher used when no broker is configured and the
// read side is not wired.
type Publisher struct{}

func (Publisher) Publish(_ context.Context, _ domain.Envelope) error { return nil }
