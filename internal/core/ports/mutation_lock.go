package ports

import (
	"context"
	"time"
)

// MutationLock is a lease shared by every console replica.
type MutationLock interface {
	// TryLock claims key for ttl. ok is false when another owner holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (owner string, ok bool, err error)
	// Unlock releases key only if owner still holds it.
	Unlock(ctx context.Context, key, owner string) error
}
