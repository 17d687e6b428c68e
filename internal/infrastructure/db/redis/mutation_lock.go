package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes the lock only while ARGV[1] still owns it.
var unlockLua = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// MutationLock is a lease that keeps a record's mutation single-flight
// across console replicas.
// Key format: console:mutation:<sid>:<resource>:<id>
type MutationLock struct {
	client *redis.Client
}

// NewMutationLock creates a MutationLock wrapping the given Redis client.
func NewMutationLock(client *redis.Client) *MutationLock {
	return &MutationLock{client: client}
}

// TryLock claims key for ttl with a fresh owner token.
func (l *MutationLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(key), owner, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("mutation lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return owner, true, nil
}

// Unlock releases key if owner still holds it.
func (l *MutationLock) Unlock(ctx context.Context, key, owner string) error {
	if err := unlockLua.Run(ctx, l.client, []string{l.key(key)}, owner).Err(); err != nil {
		return fmt.Errorf("mutation unlock: %w", err)
	}
	return nil
}

func (l *MutationLock) key(key string) string {
	return keyPrefix + "mutation:" + key
}
