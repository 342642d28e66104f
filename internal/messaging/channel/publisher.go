// Package channel is an in-process broker stand-in: published envelopes are
// handed to a Handler through a buffered channel. Used in broker-less runs
// and in tests.
package channel

import (
	"context"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/messaging"
	"github.com/orderflow/ordersvc/internal/obs"
)

type Publisher struct {
	ch chan domain.Envelope
}

func New(buffer int) *Publisher {
	return &Publisher{ch: make(chan domain.Envelope, buffer)}
}

func (p *Publisher) Publish(ctx context.Context, env domain.Envelope) error {
	select {
	case p.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers published envelopes to the handler in publish order until ctx
// is cancelled. Handler errors are logged and the envelope is dropped; the
// outbox already marked it published.
func (p *Publisher) Run(ctx context.Context, handler messaging.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.ch:
			if err := handler.Handle(ctx, env); err != nil {
				obs.Logger.Error("channel_handle_failed", "error", err, "event_id", env.EventID)
			}
		}
	}
}
