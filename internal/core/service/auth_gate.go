package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
)

// AuthState is the authorization gate's view of the session lifecycle.
type AuthState string

const (
	StateBootstrapping   AuthState = "bootstrapping"
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticating  AuthState = "authenticating"
	StateAuthenticated   AuthState = "authenticated"
	StateExpired         AuthState = "expired"
)

const defaultRefreshTimeout = 10 * time.Second

// GateConfig tunes the background profile refresh.
type GateConfig struct {
	// RefreshAfter is the minimum age of the cached identity before a
	// refresh is started. Zero refreshes on every mount.
	RefreshAfter time.Duration
	// RefreshTimeout bounds a single background refresh.
	RefreshTimeout time.Duration
	// Tracker, when set, also counts every background refresh so the
	// process can drain them before closing its stores.
	Tracker *sync.WaitGroup
}

// AuthGate drives session bootstrap, login, logout and permission checks for
// one request. A refresh that resolves after a logout is discarded.
type AuthGate struct {
	store    *SessionStore
	profiles ports.ProfileFetcher
	routes   domain.PublicRoutes
	cfg      GateConfig
	log      zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	state       AuthState
	epoch       uint64
	refreshes   sync.WaitGroup
	unsubscribe func()
}

// NewAuthGate binds a gate to store. profiles may be nil to disable refresh.
func NewAuthGate(store *SessionStore, profiles ports.ProfileFetcher, routes domain.PublicRoutes, cfg GateConfig, log zerolog.Logger) *AuthGate {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	g := &AuthGate{
		store:    store,
		profiles: profiles,
		routes:   routes,
		cfg:      cfg,
		log:      log.With().Str("component", "auth_gate").Logger(),
		now:      time.Now,
		state:    StateBootstrapping,
	}
	g.unsubscribe = store.Subscribe(g.onSession)
	return g
}

// Mount resolves the session for route. It returns the path to redirect to,
// or "" when the route may render.
func (g *AuthGate) Mount(ctx context.Context, route string) (string, error) {
	g.setState(StateBootstrapping)

	sess, err := g.store.Restore(ctx)
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		g.setState(StateExpired)
		g.log.Info().Str("sid", g.store.SID()).Msg("stored credential expired")
	case err != nil:
		g.setState(StateUnauthenticated)
		return "", err
	}

	if !sess.Authenticated() {
		g.setState(StateUnauthenticated)
		if g.routes.IsPublic(route) {
			return "", nil
		}
		return domain.LoginRoute, nil
	}

	g.setState(StateAuthenticated)
	if g.profiles != nil && g.now().Sub(g.store.RefreshedAt()) >= g.cfg.RefreshAfter && !g.routes.IsPublic(route) {
		g.refreshInBackground(ctx, sess)
	}
	return "", nil
}

// Login commits a credential and identity and returns the landing route.
// On failure the session is left untouched and no route is returned.
func (g *AuthGate) Login(ctx context.Context, credential string, identity domain.Identity) (string, error) {
	g.mu.Lock()
	prev := g.state
	g.state = StateAuthenticating
	g.mu.Unlock()

	if err := g.store.Commit(ctx, credential, identity); err != nil {
		g.setState(prev)
		return "", err
	}

	g.mu.Lock()
	g.epoch++
	g.state = StateAuthenticated
	g.mu.Unlock()
	return domain.LandingRoute, nil
}

// Logout clears the session. It returns the login route unless route is
// already public. Logging out twice is harmless.
func (g *AuthGate) Logout(ctx context.Context, route string) (string, error) {
	g.mu.Lock()
	g.epoch++
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		return "", fmt.Errorf("logout: %w", err)
	}
	g.setState(StateUnauthenticated)

	if g.routes.IsPublic(route) {
		return "", nil
	}
	return domain.LoginRoute, nil
}

// HasPermission reports whether the signed-in role is one of allowed.
func (g *AuthGate) HasPermission(allowed ...string) bool {
	identity, ok := g.store.Identity()
	if !ok {
		return false
	}
	for _, role := range allowed {
		if identity.Role.Name == role {
			return true
		}
	}
	return false
}

// Identity returns the read-only identity of the session.
func (g *AuthGate) Identity() (domain.Identity, bool) {
	return g.store.Identity()
}

// Store returns the session store the gate drives.
func (g *AuthGate) Store() *SessionStore { return g.store }

// State returns the current gate state.
func (g *AuthGate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Wait blocks until every background refresh started by the gate returned.
func (g *AuthGate) Wait() {
	g.refreshes.Wait()
}

// Close detaches the gate from its store.
func (g *AuthGate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *AuthGate) refreshInBackground(ctx context.Context, sess domain.Session) {
	g.mu.Lock()
	epoch := g.epoch
	g.mu.Unlock()

	userID := sess.Identity.ID
	credential := sess.Credential
	log := g.log.With().Str("sid", g.store.SID()).Str("user_id", userID).Logger()

	tracker := g.cfg.Tracker
	g.refreshes.Add(1)
	if tracker != nil {
		tracker.Add(1)
	}
	go func() {
		defer g.refreshes.Done()
		if tracker != nil {
			defer tracker.Done()
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.RefreshTimeout)
		defer cancel()

		user, err := g.profiles.GetByID(rctx, userID)
		if err != nil {
			// A failed refresh keeps the cached identity.
			log.Warn().Err(err).Msg("profile refresh failed")
			return
		}

		g.mu.Lock()
		stale := g.epoch != epoch
		g.mu.Unlock()
		if stale {
			log.Debug().Msg("profile refresh discarded after session change")
			return
		}

		applied, err := g.store.Reconcile(rctx, credential, user.Identity())
		if err != nil {
			log.Warn().Err(err).Msg("profile reconcile failed")
			return
		}
		if !applied {
			log.Debug().Msg("profile refresh discarded, credential replaced")
			return
		}
		log.Debug().Msg("profile refreshed")
	}()
}

// onSession reacts to clears made outside the gate, such as the HTTP
// adapter's 401 handling.
func (g *AuthGate) onSession(s domain.Session) {
	if s.Status != domain.StatusUnauthenticated {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateAuthenticated {
		g.epoch++
		g.state = StateUnauthenticated
	}
}

func (g *AuthGate) setState(s AuthState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}
