// Package outbox relays durably stored events to the message broker.
//
// Events and their outbox entries are written in the same storage
// transaction by the event log; the relay drains pending entries in
// insertion order, publishes them, and marks them sent. A failed publish
// leaves the entry pending for the next tick, so delivery is at-least-once.
package outbox

import (
	"context"

	"github.com/orderflow/ordersvc/internal/domain"
)

// Entry is one pending publication. ID is the insertion-ordered outbox
// sequence, not the event id.
type Entry struct {
	ID       int64
	Envelope domain.Envelope
}

// Store is the outbox side of the event log's storage.
type Store interface {
	// Pending returns unpublished entries in insertion order, up to limit.
	Pending(ctx context.Context, limit int) ([]Entry, error)
	// MarkPublished records that the given entries were delivered.
	MarkPublished(ctx context.Context, ids []int64) error
}
