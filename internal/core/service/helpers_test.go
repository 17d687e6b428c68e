package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub session repository
// ---------------------------------------------------------------------------

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]map[string]string
	ttls     map[string]time.Duration
	loadErr  error
	saveErr  error
	deletes  int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{
		sessions: make(map[string]map[string]string),
		ttls:     make(map[string]time.Duration),
	}
}

func (r *stubSessionRepo) Load(_ context.Context, sid string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make(map[string]string, len(r.sessions[sid]))
	for k, v := range r.sessions[sid] {
		out[k] = v
	}
	return out, nil
}

func (r *stubSessionRepo) Save(_ context.Context, sid string, fields map[string]string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.sessions[sid] = copyFields(fields)
	r.ttls[sid] = ttl
	return nil
}

func (r *stubSessionRepo) SaveIfToken(_ context.Context, sid, token string, fields map[string]string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[sid]
	if !ok || current[domain.FieldToken] != token {
		return false, nil
	}
	for k, v := range fields {
		current[k] = v
	}
	return true, nil
}

func (r *stubSessionRepo) Set(_ context.Context, sid string, fields map[string]string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[sid]
	if !ok {
		current = make(map[string]string)
		r.sessions[sid] = current
	}
	for k, v := range fields {
		current[k] = v
	}
	r.ttls[sid] = ttl
	return nil
}

func (r *stubSessionRepo) Delete(_ context.Context, sid string, fields ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	current, ok := r.sessions[sid]
	if len(fields) > 0 && ok {
		for _, f := range fields {
			delete(current, f)
		}
		if len(current) > 0 {
			return nil
		}
	}
	delete(r.sessions, sid)
	delete(r.ttls, sid)
	return nil
}

func (r *stubSessionRepo) fields(sid string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyFields(r.sessions[sid])
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Stub profile fetcher
// ---------------------------------------------------------------------------

type stubProfiles struct {
	getFn func(ctx context.Context, id string) (*domain.User, error)
	calls int
	mu    sync.Mutex
}

func (p *stubProfiles) GetByID(ctx context.Context, id string) (*domain.User, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.getFn(ctx, id)
}

func (p *stubProfiles) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var errProfileDown = errors.New("profile endpoint down")

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("api-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validToken(t *testing.T) string {
	return tokenExpiringAt(t, time.Now().Add(time.Hour))
}

func newTestStore(repo *stubSessionRepo) *SessionStore {
	return NewSessionStore(repo, "sid-1", time.Hour*24, zerolog.Nop())
}

func adminIdentity() domain.Identity {
	return domain.Identity{ID: "u1", Email: "a@b.com", Name: "Ann", Role: domain.RoleRef{ID: "r1", Name: domain.RoleAdmin}}
}
