// Package command orchestrates the write path: one use case per handler,
// each running the same load, mutate, append sequence against the event log.
package command

import (
	"context"
	"fmt"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/eventlog"
	"github.com/orderflow/ordersvc/internal/obs"
)

// CreateOrder opens a new order for a user.
type CreateOrder struct {
	UserID string
	Items  []domain.OrderItem
}

// PayOrder records a payment against an existing order.
type PayOrder struct {
	OrderID   string
	PaymentID string
}

// CancelOrder cancels an existing order.
type CancelOrder struct {
	OrderID string
	Reason  string
}

// Handlers executes order commands. Publication happens asynchronously via
// the outbox relay; a successful return means the events are durable.
type Handlers struct {
	log eventlog.Store
}

func NewHandlers(log eventlog.Store) *Handlers {
	return &Handlers{log: log}
}

// HandleCreateOrder runs the create use case and returns the new order id.
// A fresh aggregate starts at version 0; its id is minted by the domain.
func (h *Handlers) HandleCreateOrder(ctx context.Context, cmd CreateOrder) (string, error) {
	agg := domain.NewOrder()
	if err := agg.CreateOrder(cmd.UserID, cmd.Items); err != nil {
		return "", err
	}
	if err := h.commit(ctx, agg, 0); err != nil {
		return "", err
	}
	obs.Logger.Info("order_created", "order_id", agg.ID(), "user_id", cmd.UserID)
	return agg.ID(), nil
}

func (h *Handlers) HandlePayOrder(ctx context.Context, cmd PayOrder) error {
	return h.execute(ctx, cmd.OrderID, func(o *domain.Order) error {
		return o.Pay(cmd.PaymentID)
	})
}

func (h *Handlers) HandleCancelOrder(ctx context.Context, cmd CancelOrder) error {
	return h.execute(ctx, cmd.OrderID, func(o *domain.Order) error {
		return o.Cancel(cmd.Reason)
	})
}

// execute is the shared template for commands on existing aggregates: load
// the stream, rehydrate, run the command method, append at the pre-mutation
// version. A ConcurrencyConflict from the log surfaces unchanged so callers
// can retry with a fresh read.
func (h *Handlers) execute(ctx context.Context, orderID string, mutate func(*domain.Order) error) error {
	events, err := h.log.Load(ctx, orderID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	agg := domain.NewOrder()
	agg.Rehydrate(events)
	expected := agg.Version()

	if err := mutate(agg); err != nil {
		return err
	}
	if err := h.commit(ctx, agg, expected); err != nil {
		return err
	}
	obs.Logger.Info("order_updated", "order_id", agg.ID(), "status", string(agg.Status()))
	return nil
}

func (h *Handlers) commit(ctx context.Context, agg *domain.Order, expectedVersion int64) error {
	if err := h.log.Append(ctx, agg.ID(), expectedVersion, agg.UncommittedEvents()); err != nil {
		return err
	}
	agg.ClearEvents()
	return nil
}
