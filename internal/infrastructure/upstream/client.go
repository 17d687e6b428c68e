// Package upstream is the console's only way to reach the People API. The
// Client attaches the session credential, refuses to send expired ones, and
// turns every 401 into a session clear; the resource clients build on it.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// SessionAccessor is the slice of the session store the client needs.
type SessionAccessor interface {
	Credential() string
	Clear(ctx context.Context) error
}

// Scope is the request-scoped state a call runs under: whose session it
// uses and which console route triggered it.
type Scope struct {
	Session SessionAccessor
	Route   string
}

type scopeKey struct{}

// WithScope attaches scope to ctx.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope attached to ctx.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(Scope)
	return scope, ok
}

// Config captures the settings of the People API client.
type Config struct {
	// BaseURL is API_URL joined with API_URL_SEGMENT.
	BaseURL      string
	Timeout      time.Duration
	PublicRoutes domain.PublicRoutes
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client sends JSON requests to the People API.
type Client struct {
	baseURL string
	http    *http.Client
	routes  domain.PublicRoutes
	log     zerolog.Logger
	now     func() time.Time
}

// New returns a Client. A default timeout is applied when none is provided.
func New(cfg Config, log zerolog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		routes:  cfg.PublicRoutes,
		log:     log.With().Str("component", "upstream").Logger(),
		now:     time.Now,
	}
}

// BaseURL returns the address every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body as JSON and decodes a successful response into out. out may
// be nil when the response body is not needed.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.Raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ServerError{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("decode %s %s: %v", method, path, err),
			Body:    raw,
		}
	}
	return nil
}

// Raw sends the request and returns the body of a successful response.
//
// Error mapping:
//   - expired credential → domain.ErrSessionExpired, nothing sent, session cleared
//   - 401               → domain.ErrUnauthorized, session cleared unless on a public route
//   - no response       → domain.ErrNetwork
//   - other non-2xx     → *domain.ServerError
func (c *Client) Raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	scope, _ := ScopeFrom(ctx)
	resource := resourceOf(path)
	fullURL := c.baseURL + path

	var credential string
	if scope.Session != nil {
		credential = scope.Session.Credential()
	}
	if credential != "" {
		if _, _, err := domain.CredentialExpiry(credential); err != nil {
			c.forceSignOut(ctx, scope, "malformed")
			c.log.Warn().Err(err).Str("method", method).Str("url", fullURL).Msg("undecodable credential dropped, sending unauthenticated")
			credential = ""
		}
	}
	if credential != "" && domain.IsExpired(credential, c.now()) {
		c.forceSignOut(ctx, scope, "expired")
		metrics.UpstreamRequestsTotal.WithLabelValues(method, resource, "session_expired").Inc()
		c.log.Warn().Str("method", method).Str("url", fullURL).Msg("credential expired, request not sent")
		return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrSessionExpired)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	c.log.Debug().Str("method", method).Str("url", fullURL).Msg("api request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, resource, "network_error").Inc()
		c.log.Error().Err(err).Str("method", method).Str("url", fullURL).Msg("no response received")
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	metrics.UpstreamRequestDuration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(method, resource, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("url", fullURL).Msg("response body read failed")
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrNetwork, err)
	}

	evt := c.log.Debug()
	if resp.StatusCode >= http.StatusBadRequest {
		evt = c.log.Warn().Bytes("body", truncate(raw, 512))
	}
	evt.Str("method", method).
		Str("url", fullURL).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("api response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if !c.routes.IsPublic(scope.Route) {
			c.forceSignOut(ctx, scope, "unauthorized")
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &domain.ServerError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Body:    raw,
		}
	}
	return raw, nil
}

func (c *Client) forceSignOut(ctx context.Context, scope Scope, reason string) {
	if scope.Session == nil {
		return
	}
	metrics.ForcedSignOutsTotal.WithLabelValues(reason).Inc()
	if err := scope.Session.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error().Err(err).Str("reason", reason).Msg("session clear failed")
	}
}

// errorMessage extracts the API's error text from common envelope shapes.
func errorMessage(raw []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	for _, field := range []json.RawMessage{envelope.Message, envelope.Error} {
		if len(field) == 0 {
			continue
		}
		var s string
		if json.Unmarshal(field, &s) == nil {
			return s
		}
		var list []string
		if json.Unmarshal(field, &list) == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return ""
}

func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(trimmed, "/?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// Ping reports whether the API answers at all. Any HTTP response counts as
// reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping api: %w: %w", domain.ErrNetwork, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.Body.Close()
}
