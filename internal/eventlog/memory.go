package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/outbox"
)

// Memory is an in-process event log with the same contract as the Postgres
// implementation, used in tests and broker-less runs.
type Memory struct {
	mu       sync.Mutex
	streams  map[string][]domain.Envelope
	eventIDs map[string]bool

	nextOutboxID int64
	pending      []outbox.Entry
	publishedIDs map[int64]bool
}

func NewMemory() *Memory {
	return &Memory{
		streams:      make(map[string][]domain.Envelope),
		eventIDs:     make(map[string]bool),
		publishedIDs: make(map[int64]bool),
	}
}

func (m *Memory) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) error {
	envs, err := encodeBatch(aggregateID, expectedVersion, events)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.streams[aggregateID]
	head := int64(len(stream))
	if head != expectedVersion {
		return fmt.Errorf("%w: aggregate %s at version %d, expected %d", ErrConcurrencyConflict, aggregateID, head, expectedVersion)
	}
	for _, env := range envs {
		if m.eventIDs[env.EventID] {
			return fmt.Errorf("%w: duplicate event id %s", ErrConcurrencyConflict, env.EventID)
		}
	}

	for _, env := range envs {
		m.eventIDs[env.EventID] = true
		stream = append(stream, env)
		m.nextOutboxID++
		m.pending = append(m.pending, outbox.Entry{ID: m.nextOutboxID, Envelope: env})
	}
	m.streams[aggregateID] = stream
	return nil
}

func (m *Memory) Load(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	m.mu.Lock()
	stream := m.streams[aggregateID]
	envs := make([]domain.Envelope, len(stream))
	copy(envs, stream)
	m.mu.Unlock()

	events := make([]domain.Event, 0, len(envs))
	for _, env := range envs {
		ev, err := domain.Decode(env)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Pending implements outbox.Store.
func (m *Memory) Pending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.pending {
		if m.publishedIDs[e.ID] {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished implements outbox.Store.
func (m *Memory) MarkPublished(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.publishedIDs[id] = true
	}
	return nil
}
