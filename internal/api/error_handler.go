package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/api/handler"
	"github.com/people-admin/console/internal/api/middleware"
	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/service"
)

// HeaderRedirect tells the table loader script where to send the browser
// when a fragment request lost its session.
const HeaderRedirect = "X-Console-Redirect"

// errorResponse is the error envelope of the JSON routes.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Sends pages that lost their session back to the login route.
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the browser.
//   - Renders the error page for HTML routes and {"error": "<message>"} for JSON routes.
func NewHTTPErrorHandler(pages *handler.Presenter, routes domain.PublicRoutes, log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		path := c.Request().URL.Path
		api := middleware.IsAPIRoute(path)
		fragment := strings.EqualFold(c.Request().Header.Get("X-Requested-With"), "fetch")

		if service.IsSessionError(err) && !api {
			switch {
			case fragment:
				c.Response().Header().Set(HeaderRedirect, domain.LoginRoute)
				_ = c.NoContent(http.StatusUnauthorized)
				return
			case !routes.IsPublic(path):
				_ = c.Redirect(http.StatusSeeOther, domain.LoginRoute)
				return
			}
		}

		code, msg := resolveError(err, log, c)
		switch {
		case api:
			_ = c.JSON(code, errorResponse{Error: msg})
		case fragment:
			_ = c.String(code, msg)
		case c.Request().Method == http.MethodHead:
			_ = c.NoContent(code)
		default:
			if rerr := c.Render(code, "error", pages.View(c, fmt.Sprintf("Error %d", code), "", views.ErrorData{Status: code, Message: msg})); rerr != nil {
				log.Error().Err(rerr).Str("path", path).Msg("render error page failed")
				_ = c.String(code, msg)
			}
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, CSRF, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var se *domain.ServerError
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "Your session has expired. Sign in again."
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Sign in to continue."
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You do not have permission to do that."
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "The requested record was not found."
	case errors.Is(err, domain.ErrMutationInProgress):
		return http.StatusConflict, "That change is already being saved."
	case errors.Is(err, domain.ErrNetwork):
		log.Warn().Err(err).Str("path", c.Path()).Msg("api unreachable")
		return http.StatusBadGateway, "The People API could not be reached. Try again in a moment."
	case errors.Is(err, domain.ErrInvalidIdentity), errors.Is(err, domain.ErrMalformedCredential):
		return http.StatusBadGateway, "The People API returned an incomplete profile."
	case errors.As(err, &se):
		if se.Status >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("path", c.Path()).Msg("api server error")
		}
		if se.Message != "" {
			return se.Status, se.Message
		}
		return se.Status, http.StatusText(se.Status)
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnhandled(log, c, err)
	return http.StatusInternalServerError, "internal server error"
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
