package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/people-admin/console/internal/api/handler"
	"github.com/people-admin/console/internal/api/middleware"
	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/core/service"
	"github.com/people-admin/console/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Sessions ports.SessionRepository
	Flashes  ports.FlashRepository
	// Lock makes the mutation guard hold across replicas. It may be nil.
	Lock ports.MutationLock

	Auth  ports.AuthClient
	Users ports.UserClient
	Roles ports.RoleClient

	// ActivityLog and Activity may be nil when no audit store is configured.
	ActivityLog ports.ActivityRepository
	Activity    ports.ActivityRecorder

	Session      middleware.SessionConfig
	CookieSecure bool
	Checks       map[string]handlers.Check
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()

	routes := deps.Session.Routes
	presenter := handler.NewPresenter(deps.Flashes, deps.Log)
	e.HTTPErrorHandler = NewHTTPErrorHandler(presenter, routes, deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   deps.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper:        skipCSRF,
	}))

	// --- Dependencies ---
	guard := service.NewMutationGuard(deps.Lock)
	authHandler := handler.NewAuthHandler(deps.Auth, presenter, deps.Activity, deps.Log)
	dashboardHandler := handler.NewDashboardHandler(deps.Users, deps.Roles, deps.ActivityLog, presenter, deps.Log)
	userHandler := handler.NewUserHandler(deps.Users, deps.Roles, guard, presenter, deps.Activity, deps.Log)
	roleHandler := handler.NewRoleHandler(deps.Roles, guard, presenter, deps.Activity, deps.Log)
	localeHandler := handler.NewLocaleHandler()
	apiHandler := handler.NewAPIHandler(deps.Users, deps.Roles)

	session := middleware.Session(deps.Sessions, deps.Users, deps.Session, deps.Log)
	canEditUsers := middleware.RBAC(domain.UserEditors...)
	canDeleteUsers := middleware.RBAC(domain.UserDeleters...)
	canManageRoles := middleware.RBAC(domain.RoleManagers...)

	// --- Sign-in routes ---
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, domain.LandingRoute)
	}, session)
	e.GET(domain.LoginRoute, authHandler.LoginPage, session)
	e.POST(domain.LoginRoute, authHandler.Login, session)
	e.POST("/logout", authHandler.Logout, session)
	e.GET("/forgot-password", authHandler.ForgotPasswordPage, session)
	e.POST("/forgot-password", authHandler.ForgotPassword, session)
	e.GET("/reset-password", authHandler.ResetPasswordPage, session)
	e.POST("/reset-password", authHandler.ResetPassword, session)
	e.POST("/locale", localeHandler.Switch, session)

	// --- Console pages ---
	e.GET(domain.LandingRoute, dashboardHandler.Show, session)

	users := e.Group("/users", session)
	users.GET("", userHandler.List)
	users.GET("/table", userHandler.Table)
	users.GET("/create", userHandler.CreatePage, canEditUsers)
	users.POST("/create", userHandler.Create, canEditUsers)
	users.GET("/:id/edit", userHandler.EditPage, canEditUsers)
	users.POST("/:id/edit", userHandler.Update, canEditUsers)
	users.GET("/:id/delete", userHandler.DeletePage, canDeleteUsers)
	users.POST("/:id/delete", userHandler.Delete, canDeleteUsers)

	roles := e.Group("/roles", session)
	roles.GET("", roleHandler.List)
	roles.GET("/table", roleHandler.Table)
	roles.GET("/create", roleHandler.CreatePage, canManageRoles)
	roles.POST("/create", roleHandler.Create, canManageRoles)
	roles.GET("/:id/edit", roleHandler.EditPage, canManageRoles)
	roles.POST("/:id/edit", roleHandler.Update, canManageRoles)
	roles.GET("/:id/delete", roleHandler.DeletePage, canManageRoles)
	roles.POST("/:id/delete", roleHandler.Delete, canManageRoles)

	// --- JSON API ---
	apiGroup := e.Group("/api", session)
	apiGroup.GET("/session", apiHandler.Session)
	apiGroup.GET("/users", apiHandler.Users)
	apiGroup.GET("/roles", apiHandler.Roles)

	// --- Assets, docs and ops (no session) ---
	e.StaticFS("/static", views.Static())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	return e, nil
}

// skipCSRF exempts routes that never receive a console form.
func skipCSRF(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range []string{"/static/", "/swagger/", "/api/", "/health", "/metrics"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
