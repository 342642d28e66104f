package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/orderflow/ordersvc/internal/messaging"
	"github.com/orderflow/ordersvc/internal/obs"
)

// Relay polls the outbox store and publishes pending entries.
type Relay struct {
	store     Store
	publisher messaging.Publisher
	interval  time.Duration
	batchSize int
}

// NewRelay builds a relay that drains up to batchSize entries every interval.
func NewRelay(store Store, publisher messaging.Publisher, interval time.Duration, batchSize int) *Relay {
	return &Relay{store: store, publisher: publisher, interval: interval, batchSize: batchSize}
}

// Run drains the outbox on every tick until ctx is cancelled. Publish
// failures are logged and retried on the next tick; they never stop the loop.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				obs.Logger.Warn("outbox_drain_failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending entries in insertion order and marks
// the delivered ones. When a publish fails, later entries for the same
// aggregate are skipped so per-aggregate order is preserved; entries for
// other aggregates still go out.
func (r *Relay) Drain(ctx context.Context) error {
	entries, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var (
		published []int64
		failed    = make(map[string]bool)
		errs      []error
	)
	for _, entry := range entries {
		aggID := entry.Envelope.AggregateID
		if failed[aggID] {
			continue
		}
		if err := r.publisher.Publish(ctx, entry.Envelope); err != nil {
			failed[aggID] = true
			errs = append(errs, &messaging.PublishError{EventID: entry.Envelope.EventID, Err: err})
			continue
		}
		published = append(published, entry.ID)
	}

	if len(published) > 0 {
		if err := r.store.MarkPublished(ctx, published); err != nil {
			errs = append(errs, err)
		} else {
			obs.Logger.Info("outbox_published", "count", len(published))
		}
	}
	return errors.Join(errs...)
}
