package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/messaging"
	"github.com/orderflow/ordersvc/internal/obs"
)

const (
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Consumer drives a Handler from a consumer group. Offsets are committed
// only after the handler succeeds, so delivery is at-least-once.
type Consumer struct {
	reader  *kafka.Reader
	handler messaging.Handler
}

func NewConsumer(brokers []string, topic, groupID string, handler messaging.Handler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		handler: handler,
	}
}

// Run fetches and handles messages until ctx is cancelled. The committed
// offset is a single per-partition watermark, so the loop never fetches past
// a message the handler has not accepted: it stays on the failing message
// and retries with backoff. Only malformed messages are skipped and
// committed, since replaying cannot fix them.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var env domain.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			obs.Logger.Error("consume_bad_message", "error", err, "offset", msg.Offset)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := handleWithRetry(ctx, c.handler, env, retryBaseDelay, retryMaxDelay); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// handleWithRetry blocks on one envelope until the handler accepts it or ctx
// ends. Returning without success is only possible via ctx, which leaves the
// offset uncommitted for redelivery.
func handleWithRetry(ctx context.Context, handler messaging.Handler, env domain.Envelope, baseDelay, maxDelay time.Duration) error {
	delay := baseDelay
	for attempt := 1; ; attempt++ {
		err := handler.Handle(ctx, env)
		if err == nil {
			return nil
		}
		obs.Logger.Error("consume_handle_failed", "error", err, "event_id", env.EventID, "attempt", attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
