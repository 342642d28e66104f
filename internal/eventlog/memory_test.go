package eventlog

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/ordersvc/internal/domain"
)

func createEvents(t *testing.T, userID string) (string, []domain.Event) {
	t.Helper()
	o := domain.NewOrder()
	require.NoError(t, o.CreateOrder(userID, []domain.OrderItem{
		{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
	}))
	return o.ID(), o.UncommittedEvents()
}

func TestAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	orderID, events := createEvents(t, "user-123")

	require.NoError(t, log.Append(ctx, orderID, 0, events))

	got, err := log.Load(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].EventMeta().Version)

	replayed := domain.NewOrder()
	replayed.Rehydrate(got)
	assert.Equal(t, domain.StatusCreated, replayed.Status())
	assert.True(t, replayed.TotalAmount().Equal(decimal.RequireFromString("200.00")))
}

func TestLoadMissingAggregate(t *testing.T) {
	got, err := NewMemory().Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	orderID, events := createEvents(t, "u")

	require.NoError(t, log.Append(ctx, orderID, 0, events))

	// A second writer who also believes the aggregate is new must lose.
	err := log.Append(ctx, orderID, 0, events)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	got, err := log.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, got, 1, "conflicting append must write nothing")
}

func TestAppendDuplicateEventID(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	orderID, events := createEvents(t, "u")
	require.NoError(t, log.Append(ctx, orderID, 0, events))

	// A correct expected version does not save a reused event id.
	dup := domain.OrderPaid{
		Meta: domain.Meta{
			EventID:       events[0].EventMeta().EventID,
			AggregateID:   orderID,
			AggregateType: domain.AggregateTypeOrder,
			EventType:     domain.EventOrderPaid,
			Version:       2,
		},
		PaymentID: "pay-1",
	}
	err := log.Append(ctx, orderID, 1, []domain.Event{dup})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}

func TestAppendVersionGapRejected(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()

	o := domain.NewOrder()
	require.NoError(t, o.CreateOrder("u", []domain.OrderItem{
		{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
	}))
	require.NoError(t, o.Pay("pay-1"))

	// Offering only the second event at expectedVersion 0 leaves a gap.
	// That is a caller bug, not a retryable race.
	err := log.Append(ctx, o.ID(), 0, o.UncommittedEvents()[1:])
	assert.ErrorIs(t, err, ErrMalformedBatch)
	assert.NotErrorIs(t, err, ErrConcurrencyConflict)
}

func TestAppendWrongAggregateRejected(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	_, events := createEvents(t, "u")

	err := log.Append(ctx, "some-other-order", 0, events)
	assert.ErrorIs(t, err, ErrMalformedBatch)
	assert.NotErrorIs(t, err, ErrConcurrencyConflict)
}

func TestConcurrentAppendSingleWinner(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	orderID, events := createEvents(t, "u")
	require.NoError(t, log.Append(ctx, orderID, 0, events))

	base, err := log.Load(ctx, orderID)
	require.NoError(t, err)

	// Two writers race to append at the same expected version.
	mutations := []func(o *domain.Order) error{
		func(o *domain.Order) error { return o.Pay("pay-1") },
		func(o *domain.Order) error { return o.Cancel("too slow") },
	}
	errs := make([]error, len(mutations))
	var wg sync.WaitGroup
	for i, mutate := range mutations {
		i, mutate := i, mutate
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := domain.NewOrder()
			o.Rehydrate(base)
			if err := mutate(o); err != nil {
				errs[i] = err
				return
			}
			errs[i] = log.Append(ctx, orderID, 1, o.UncommittedEvents())
		}()
	}
	wg.Wait()

	var conflicts int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConcurrencyConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one writer must lose")

	got, err := log.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOutboxPendingAndMark(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	orderID, events := createEvents(t, "u")
	require.NoError(t, log.Append(ctx, orderID, 0, events))

	entries, err := log.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, orderID, entries[0].Envelope.AggregateID)

	require.NoError(t, log.MarkPublished(ctx, []int64{entries[0].ID}))
	entries, err = log.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
