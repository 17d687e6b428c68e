package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/people-admin/console/internal/core/domain"
)

type stubActivityLog struct {
	recent []domain.Activity
	err    error
}

func (s *stubActivityLog) Insert(context.Context, *domain.Activity) error { return nil }

func (s *stubActivityLog) Recent(_ context.Context, limit int) ([]domain.Activity, error) {
	if limit != recentActivityLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	return s.recent, s.err
}

func TestDashboardHandler_Show(t *testing.T) {
	env := newTestEnv(t)
	log := &stubActivityLog{recent: []domain.Activity{{
		ActorEmail: "root@example.com",
		Action:     domain.ActionDelete,
		Resource:   domain.ResourceUsers,
		ResourceID: "u7",
		Outcome:    domain.OutcomeSuccess,
		OccurredAt: time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC),
	}}}
	usersStub := &stubUsers{listFn: func(context.Context) ([]domain.User, error) { return users(7), nil }}
	h := NewDashboardHandler(usersStub, staticRoles(), log, env.views, env.log)

	c, res := env.request(http.MethodGet, "/dashboard", nil, newGate(t, "admin"))
	if err := h.Show(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	body := res.Body.String()
	if !strings.Contains(body, `<span class="stat-value">7</span>`) || !strings.Contains(body, `<span class="stat-value">2</span>`) {
		t.Fatalf("expected counts, got %s", body)
	}
	if !strings.Contains(body, "root@example.com") || !strings.Contains(body, "2026-03-04 10:30") {
		t.Fatalf("expected activity row, got %s", body)
	}
}

func TestDashboardHandler_Show_SectionsFailIndependently(t *testing.T) {
	env := newTestEnv(t)
	usersStub := &stubUsers{listFn: func(context.Context) ([]domain.User, error) {
		return nil, fmt.Errorf("GET /users: %w", domain.ErrNetwork)
	}}
	h := NewDashboardHandler(usersStub, staticRoles(), &stubActivityLog{err: errors.New("mongo down")}, env.views, env.log)

	c, res := env.request(http.MethodGet, "/dashboard", nil, newGate(t, "admin"))
	if err := h.Show(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "could not be reached") || !strings.Contains(body, "Recent activity is unavailable.") {
		t.Fatalf("expected both section errors, got %s", body)
	}
}

func TestDashboardHandler_Show_SessionErrorPropagates(t *testing.T) {
	env := newTestEnv(t)
	usersStub := &stubUsers{listFn: func(context.Context) ([]domain.User, error) {
		return nil, domain.ErrSessionExpired
	}}
	h := NewDashboardHandler(usersStub, staticRoles(), nil, env.views, env.log)

	c, _ := env.request(http.MethodGet, "/dashboard", nil, newGate(t, "admin"))
	if err := h.Show(c); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
