package domain

import "errors"

// Stable error categories surfaced to callers. API layers map these to
// status codes; everything else is treated as an internal failure.
var (
	ErrInvalidOrder     = errors.New("order must contain at least one item")
	ErrInvalidItem      = errors.New("order item must have positive quantity and unit price")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotCreated  = errors.New("order must be in created state")
	ErrOrderCancelled   = errors.New("order already cancelled")
	ErrUnknownEventType = errors.New("unknown event type")
)
