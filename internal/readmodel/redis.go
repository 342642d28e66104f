package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix = "orderview:"
	userKeyPrefix = "orderview:user:"
)

// Redis stores each view as a JSON document plus a per-user index set.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func viewKey(orderID string) string { return viewKeyPrefix + orderID }
func userKey(userID string) string  { return userKeyPrefix + userID }

func (s *Redis) Get(ctx context.Context, orderID string) (OrderView, bool, error) {
	raw, err := s.client.Get(ctx, viewKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return OrderView{}, false, nil
	}
	if err != nil {
		return OrderView{}, false, fmt.Errorf("get view %s: %w", orderID, err)
	}
	var view OrderView
	if err := json.Unmarshal(raw, &view); err != nil {
		return OrderView{}, false, fmt.Errorf("decode view %s: %w", orderID, err)
	}
	return view, true, nil
}

func (s *Redis) Put(ctx context.Context, view OrderView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view %s: %w", view.OrderID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, viewKey(view.OrderID), raw, 0)
	pipe.SAdd(ctx, userKey(view.UserID), view.OrderID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put view %s: %w", view.OrderID, err)
	}
	return nil
}

func (s *Redis) ListByUser(ctx context.Context, userID string) ([]OrderView, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list views for user %s: %w", userID, err)
	}
	views := make([]OrderView, 0, len(ids))
	for _, id := range ids {
		view, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			views = append(views, view)
		}
	}
	return views, nil
}
