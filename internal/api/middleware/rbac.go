package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/service"
	"github.com/people-admin/console/internal/pkg/metrics"
)

// RBAC rejects requests whose signed-in role is not in allowedRoles. The
// decision is the gate's HasPermission, the same predicate the views use.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			gate, _ := c.Get(ContextKeyGate).(*service.AuthGate)
			if gate == nil {
				return domain.ErrUnauthorized
			}
			if _, ok := gate.Identity(); !ok {
				return domain.ErrUnauthorized
			}
			if !gate.HasPermission(allowedRoles...) {
				metrics.PermissionDeniedTotal.WithLabelValues(c.Path()).Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
