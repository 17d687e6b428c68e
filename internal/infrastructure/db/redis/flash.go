package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/people-admin/console/internal/core/domain"
)

const flashTTL = 10 * time.Minute

// FlashRepository queues notifications in a list per session.
// Key format: console:flash:<sid>
type FlashRepository struct {
	client *redis.Client
}

// NewFlashRepository creates a FlashRepository wrapping the given Redis client.
func NewFlashRepository(client *redis.Client) *FlashRepository {
	return &FlashRepository{client: client}
}

// Push appends flash. Unread notifications expire after flashTTL.
func (r *FlashRepository) Push(ctx context.Context, sid string, flash domain.Flash) error {
	payload, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	key := flashKey(sid)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, flashTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push flash: %w", err)
	}
	return nil
}

// Drain returns the queued notifications oldest first and removes them.
func (r *FlashRepository) Drain(ctx context.Context, sid string) ([]domain.Flash, error) {
	key := flashKey(sid)
	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain flash: %w", err)
	}

	raw := items.Val()
	out := make([]domain.Flash, 0, len(raw))
	for _, item := range raw {
		var f domain.Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func flashKey(sid string) string {
	return keyPrefix + "flash:" + sid
}
