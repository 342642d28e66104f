// Package eventlog stores domain events as an append-only, per-aggregate
// ordered log with optimistic concurrency control.
package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/orderflow/ordersvc/internal/domain"
)

// ErrConcurrencyConflict means the append's expected version was stale or a
// uniqueness constraint fired. Callers may re-read the stream, recompute and
// retry; the log itself never retries.
var ErrConcurrencyConflict = errors.New("event log: expected version is stale")

// ErrMalformedBatch means the offered events do not continue the stream at
// expectedVersion+1 or name the wrong aggregate. This is a caller bug, not a
// race; retrying cannot succeed.
var ErrMalformedBatch = errors.New("event log: batch does not continue the stream")

// Store is the event log contract. Append writes nothing on conflict.
type Store interface {
	// Append inserts events at versions expectedVersion+1.. for the
	// aggregate, atomically with the corresponding outbox entries.
	// expectedVersion 0 means the aggregate must not exist yet.
	Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) error
	// Load returns the aggregate's events in ascending version order, or an
	// empty slice when the aggregate does not exist.
	Load(ctx context.Context, aggregateID string) ([]domain.Event, error)
}

// encodeBatch checks that the events continue the stream at
// expectedVersion+1 with no gaps and encodes them for storage.
func encodeBatch(aggregateID string, expectedVersion int64, events []domain.Event) ([]domain.Envelope, error) {
	envs := make([]domain.Envelope, 0, len(events))
	for i, ev := range events {
		meta := ev.EventMeta()
		if meta.AggregateID != aggregateID {
			return nil, fmt.Errorf("%w: event %s belongs to aggregate %s, not %s", ErrMalformedBatch, meta.EventID, meta.AggregateID, aggregateID)
		}
		if want := expectedVersion + int64(i) + 1; meta.Version != want {
			return nil, fmt.Errorf("%w: event %s has version %d, want %d", ErrMalformedBatch, meta.EventID, meta.Version, want)
		}
		env, err := domain.Encode(ev)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}
