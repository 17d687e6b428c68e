package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/people-admin/console/internal/core/domain"
)

// saveIfTokenScript merges ARGV[3..] field/value pairs into the hash only
// while field ARGV[1] still equals ARGV[2].
const saveIfTokenScript = `
if redis.call("HGET", KEYS[1], ARGV[1]) ~= ARGV[2] then
  return 0
end
for i = 3, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`

var saveIfTokenLua = redis.NewScript(saveIfTokenScript)

// SessionRepository stores session fields in one hash per session id.
// Key format: console:session:<sid>
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a SessionRepository wrapping the given Redis client.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Load(ctx context.Context, sid string) (map[string]string, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// Save replaces every field atomically.
func (r *SessionRepository) Save(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error {
	key := sessionKey(sid)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, pairs(fields)...)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) SaveIfToken(ctx context.Context, sid, token string, fields map[string]string) (bool, error) {
	args := append([]any{domain.FieldToken, token}, pairs(fields)...)
	n, err := saveIfTokenLua.Run(ctx, r.client, []string{sessionKey(sid)}, args...).Int64()
	if err != nil {
		return false, fmt.Errorf("reconcile session: %w", err)
	}
	return n == 1, nil
}

func (r *SessionRepository) Set(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error {
	key := sessionKey(sid)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, pairs(fields)...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set session fields: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sid string, fields ...string) error {
	key := sessionKey(sid)
	cmd := r.client.Del(ctx, key)
	if len(fields) > 0 {
		cmd = r.client.HDel(ctx, key, fields...)
	}
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(sid string) string {
	return keyPrefix + "session:" + sid
}

func pairs(fields map[string]string) []any {
	out := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
