package ports

import (
	"context"
	"time"

	"github.com/people-admin/console/internal/core/domain"
)

// SessionRepository persists the per-browser-session key/value fields.
// Only the session store writes through it.
type SessionRepository interface {
	// Load returns the stored fields, or an empty map when the session is unknown.
	Load(ctx context.Context, sid string) (map[string]string, error)
	// Save replaces the stored fields and sets their time to live.
	Save(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error
	// SaveIfToken merges fields only while the stored token still equals token.
	SaveIfToken(ctx context.Context, sid, token string, fields map[string]string) (bool, error)
	// Set merges fields without touching the token and extends the time to live.
	Set(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error
	// Delete removes the named fields, or the whole session when none are
	// named. Deleting unknown fields or sessions is not an error.
	Delete(ctx context.Context, sid string, fields ...string) error
}

// FlashRepository queues transient notifications for a session.
type FlashRepository interface {
	Push(ctx context.Context, sid string, flash domain.Flash) error
	Drain(ctx context.Context, sid string) ([]domain.Flash, error)
}
