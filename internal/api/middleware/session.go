package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/core/service"
	"github.com/people-admin/console/internal/infrastructure/upstream"
	"github.com/people-admin/console/internal/pkg/metrics"
)

// Context keys set by Session.
const (
	ContextKeyStore = "session_store"
	ContextKeyGate  = "auth_gate"
)

// SessionConfig configures the session middleware.
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	MaxTTL       time.Duration
	// RefreshAfter is how old a cached identity may get before the gate
	// refreshes it in the background.
	RefreshAfter time.Duration
	Routes       domain.PublicRoutes
	// Refreshes tracks background profile refreshes across requests.
	// Shutdown waits on it before the stores close.
	Refreshes *sync.WaitGroup
}

// Session binds a session store and authorization gate to every request,
// keyed by an opaque cookie, and resolves the session before the handler
// runs. Unauthenticated requests to protected pages are redirected to the
// login route; protected JSON routes fail with domain.ErrUnauthorized.
func Session(repo ports.SessionRepository, profiles ports.ProfileFetcher, cfg SessionConfig, log zerolog.Logger) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "console_sid"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := req.URL.Path
			sid := sessionID(c, cfg)

			store := service.NewSessionStore(repo, sid, cfg.MaxTTL, log)
			unsubscribe := store.Subscribe(func(s domain.Session) {
				metrics.SessionTransitionsTotal.WithLabelValues(string(s.Status)).Inc()
			})
			defer unsubscribe()

			gate := service.NewAuthGate(store, profiles, cfg.Routes, service.GateConfig{RefreshAfter: cfg.RefreshAfter, Tracker: cfg.Refreshes}, log)
			defer gate.Close()

			ctx := upstream.WithScope(req.Context(), upstream.Scope{Session: store, Route: route})
			c.SetRequest(req.WithContext(ctx))
			c.Set(ContextKeyStore, store)
			c.Set(ContextKeyGate, gate)

			redirect, err := gate.Mount(ctx, route)
			if err != nil {
				return fmt.Errorf("session middleware: %w", err)
			}
			if redirect != "" {
				if IsAPIRoute(route) {
					return domain.ErrUnauthorized
				}
				return c.Redirect(http.StatusSeeOther, redirect)
			}
			return next(c)
		}
	}
}

// IsAPIRoute reports whether route belongs to the JSON API.
func IsAPIRoute(route string) bool {
	return route == "/api" || strings.HasPrefix(route, "/api/")
}

// sessionID returns the request's session id, issuing a fresh cookie when
// the browser has none or sent a malformed one.
func sessionID(c echo.Context, cfg SessionConfig) string {
	if cookie, err := c.Cookie(cfg.CookieName); err == nil {
		if _, perr := uuid.Parse(cookie.Value); perr == nil {
			return cookie.Value
		}
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}
