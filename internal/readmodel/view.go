// Package readmodel holds the denormalized Order View and its store.
package readmodel

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ItemView is a denormalized order line.
type ItemView struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderView is the read-optimized document for one order, eventually
// consistent with the event log. Version is the highest event version
// applied to it; the projection uses it to drop duplicate deliveries.
type OrderView struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	Items       []ItemView      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Store is the Order View storage contract. The projection consumer is its
// only writer.
type Store interface {
	// Get returns the view and whether it exists.
	Get(ctx context.Context, orderID string) (OrderView, bool, error)
	// Put upserts the view and indexes it by user.
	Put(ctx context.Context, view OrderView) error
	// ListByUser returns all views for a user, unordered.
	ListByUser(ctx context.Context, userID string) ([]OrderView, error)
}
