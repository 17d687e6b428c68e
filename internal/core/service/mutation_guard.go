package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
)

// mutationLease bounds how long a crashed replica can keep a record locked.
const mutationLease = 30 * time.Second

// MutationGuard lets at most one mutation per key run at a time. A second
// submission while the first is pending is rejected, not queued. With a
// shared lock the guard also holds across console replicas.
type MutationGuard struct {
	lock ports.MutationLock

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewMutationGuard returns a guard. lock may be nil for a single replica.
func NewMutationGuard(lock ports.MutationLock) *MutationGuard {
	return &MutationGuard{lock: lock, pending: make(map[string]struct{})}
}

// MutationKey builds the guard key of a mutation on one record of a session.
func MutationKey(sid, resource, id string) string {
	return strings.Join([]string{sid, resource, id}, ":")
}

// Acquire claims key. The returned release must be called once the mutation
// finished; it is safe to call more than once.
func (g *MutationGuard) Acquire(ctx context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	if _, busy := g.pending[key]; busy {
		g.mu.Unlock()
		return nil, domain.ErrMutationInProgress
	}
	g.pending[key] = struct{}{}
	g.mu.Unlock()

	var owner string
	if g.lock != nil {
		var ok bool
		owner, ok, err = g.lock.TryLock(ctx, key, mutationLease)
		if err != nil || !ok {
			g.forget(key)
			if err != nil {
				return nil, fmt.Errorf("acquire mutation lock: %w", err)
			}
			return nil, domain.ErrMutationInProgress
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if g.lock != nil {
				// The lease expires on its own if this fails.
				_ = g.lock.Unlock(context.WithoutCancel(ctx), key, owner)
			}
			g.forget(key)
		})
	}, nil
}

func (g *MutationGuard) forget(key string) {
	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
}
