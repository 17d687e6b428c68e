package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/core/service"
)

const recentActivityLimit = 10

type DashboardHandler struct {
	users    ports.UserClient
	roles    ports.RoleClient
	activity ports.ActivityRepository
	views    *Presenter
	log      zerolog.Logger
}

// NewDashboardHandler wires the dashboard. activity may be nil when no audit
// store is configured.
func NewDashboardHandler(users ports.UserClient, roles ports.RoleClient, activity ports.ActivityRepository, views *Presenter, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		users:    users,
		roles:    roles,
		activity: activity,
		views:    views,
		log:      log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Show renders the user and role counts and the latest audit entries. A
// failed section is reported in place; the rest of the page still renders.
func (h *DashboardHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()
	var data views.DashboardData

	users, err := h.users.List(ctx)
	if err == nil {
		var roles []domain.Role
		roles, err = h.roles.List(ctx)
		data.RoleCount = len(roles)
	}
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("dashboard counts failed")
		data.CountsError = errorMessage(err)
	}
	data.UserCount = len(users)

	if h.activity == nil {
		data.ActivityError = "Activity tracking is not configured."
	} else if recent, err := h.activity.Recent(ctx, recentActivityLimit); err != nil {
		h.log.Warn().Err(err).Msg("recent activity failed")
		data.ActivityError = "Recent activity is unavailable."
	} else {
		data.Activity = recent
	}

	return c.Render(http.StatusOK, "dashboard", h.views.View(c, "Dashboard", "dashboard", data))
}
