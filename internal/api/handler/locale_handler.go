package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/service"
)

type LocaleHandler struct{}

func NewLocaleHandler() *LocaleHandler {
	return &LocaleHandler{}
}

// Switch stores the chosen locale in the session and sends the browser back
// to the page it came from.
func (h *LocaleHandler) Switch(c echo.Context) error {
	gate, err := ctxGate(c)
	if err != nil {
		return err
	}
	locale := strings.TrimSpace(c.FormValue("locale"))
	if !service.IsSupportedLocale(locale) {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported locale")
	}
	if err := gate.Store().SetLocale(c.Request().Context(), locale); err != nil {
		return err
	}

	target := backTo(c.Request().Referer())
	if target == "" {
		target = domain.LoginRoute
		if _, ok := gate.Identity(); ok {
			target = domain.LandingRoute
		}
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// backTo returns the local path of referer, or "" when it is absent. Only
// the path and query are kept so the redirect never leaves the console.
func backTo(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return ""
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
