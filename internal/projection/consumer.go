// Package projection derives the Order View from delivered order events.
package projection

import (
	"context"
	"errors"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/obs"
	"github.com/orderflow/ordersvc/internal/readmodel"
)

// Consumer applies one delivered event per call to the view store. It is the
// sole writer of the Order View and trusts the event log as source of truth.
//
// Delivery is at-least-once: duplicates are dropped by comparing the event
// version against the view's last applied version.
type Consumer struct {
	views readmodel.Store
}

func NewConsumer(views readmodel.Store) *Consumer {
	return &Consumer{views: views}
}

// Handle implements messaging.Handler.
func (c *Consumer) Handle(ctx context.Context, env domain.Envelope) error {
	ev, err := domain.Decode(env)
	if errors.Is(err, domain.ErrUnknownEventType) {
		obs.Logger.Warn("projection_unknown_event", "event_type", env.EventType, "event_id", env.EventID)
		return nil
	}
	if err != nil {
		return err
	}

	switch e := ev.(type) {
	case domain.OrderCreated:
		return c.applyCreated(ctx, e)
	case domain.OrderPaid:
		return c.applyStatus(ctx, e.Meta, string(domain.StatusPaid))
	case domain.OrderCancelled:
		return c.applyStatus(ctx, e.Meta, string(domain.StatusCancelled))
	}
	return nil
}

func (c *Consumer) applyCreated(ctx context.Context, e domain.OrderCreated) error {
	_, ok, err := c.views.Get(ctx, e.Meta.AggregateID)
	if err != nil {
		return err
	}
	if ok {
		// Duplicate delivery of the create event.
		obs.Logger.Info("projection_duplicate_dropped", "event_id", e.Meta.EventID, "order_id", e.Meta.AggregateID)
		return nil
	}

	items := make([]readmodel.ItemView, 0, len(e.Items))
	for _, it := range e.Items {
		items = append(items, readmodel.ItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	view := readmodel.OrderView{
		OrderID:     e.Meta.AggregateID,
		UserID:      e.UserID,
		Status:      string(domain.StatusCreated),
		Items:       items,
		TotalAmount: e.TotalAmount,
		Version:     e.Meta.Version,
		CreatedAt:   e.Meta.OccurredAt,
		UpdatedAt:   e.Meta.OccurredAt,
	}
	if err := c.views.Put(ctx, view); err != nil {
		return err
	}
	obs.Logger.Info("projection_created", "order_id", view.OrderID)
	return nil
}

func (c *Consumer) applyStatus(ctx context.Context, meta domain.Meta, status string) error {
	view, ok, err := c.views.Get(ctx, meta.AggregateID)
	if err != nil {
		return err
	}
	if !ok {
		// The create projection has not arrived yet; this delivery is
		// dropped, not retried.
		obs.Logger.Warn("projection_view_missing", "event_id", meta.EventID, "order_id", meta.AggregateID)
		return nil
	}
	if meta.Version <= view.Version {
		obs.Logger.Info("projection_duplicate_dropped", "event_id", meta.EventID, "order_id", meta.AggregateID)
		return nil
	}

	view.Status = status
	view.Version = meta.Version
	view.UpdatedAt = meta.OccurredAt
	if err := c.views.Put(ctx, view); err != nil {
		return err
	}
	obs.Logger.Info("projection_updated", "order_id", view.OrderID, "status", status)
	return nil
}
