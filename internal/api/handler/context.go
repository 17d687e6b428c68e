package handler

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/api/middleware"
	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/core/service"
)

// ctxGate returns the authorization gate the session middleware attached.
// Its absence means the route was registered outside the middleware.
func ctxGate(c echo.Context) (*service.AuthGate, error) {
	gate, ok := c.Get(middleware.ContextKeyGate).(*service.AuthGate)
	if !ok || gate == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not initialised")
	}
	return gate, nil
}

// ctxIdentity returns the signed-in identity or ErrUnauthorized.
func ctxIdentity(c echo.Context) (*service.AuthGate, domain.Identity, error) {
	gate, err := ctxGate(c)
	if err != nil {
		return nil, domain.Identity{}, err
	}
	identity, ok := gate.Identity()
	if !ok {
		return nil, domain.Identity{}, domain.ErrUnauthorized
	}
	return gate, identity, nil
}

// Presenter builds the data shared by every rendered page.
type Presenter struct {
	flashes ports.FlashRepository
	log     zerolog.Logger
}

func NewPresenter(flashes ports.FlashRepository, log zerolog.Logger) *Presenter {
	return &Presenter{flashes: flashes, log: log}
}

// View assembles the page data. Pending flashes are drained.
func (p *Presenter) View(c echo.Context, title, section string, data any) views.View {
	v := views.View{
		Title:   title,
		Section: section,
		Locale:  service.DefaultLocale,
		Locales: service.SupportedLocales(),
		Data:    data,
	}
	if token, ok := c.Get(echomiddleware.DefaultCSRFConfig.ContextKey).(string); ok {
		v.CSRF = token
	}

	gate, err := ctxGate(c)
	if err != nil {
		return v
	}
	store := gate.Store()
	v.Perms = views.NewPermissions(gate)
	v.Locale = service.NegotiateLocale(store.Locale(), c.Request().Header.Get("Accept-Language"))
	if identity, ok := gate.Identity(); ok {
		v.User = &identity
	}
	if p.flashes != nil {
		flashes, err := p.flashes.Drain(c.Request().Context(), store.SID())
		if err != nil {
			p.log.Warn().Err(err).Msg("flash drain failed")
		}
		v.Flashes = flashes
	}
	return v
}

// Flash queues a notification for the next rendered page.
func (p *Presenter) Flash(c echo.Context, level, message string) {
	if p.flashes == nil {
		return
	}
	gate, err := ctxGate(c)
	if err != nil {
		return
	}
	if err := p.flashes.Push(context.WithoutCancel(c.Request().Context()), gate.Store().SID(), domain.Flash{Level: level, Message: message}); err != nil {
		p.log.Warn().Err(err).Msg("flash push failed")
	}
}

// isFragment reports whether the request came from the table loader script.
func isFragment(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get("X-Requested-With"), "fetch")
}

// errorMessage is the user-facing text of a failed upstream call.
func errorMessage(err error) string {
	var se *domain.ServerError
	switch {
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.As(err, &se):
		return http.StatusText(se.Status)
	case errors.Is(err, domain.ErrNetwork):
		return "The People API could not be reached. Try again in a moment."
	case errors.Is(err, domain.ErrMutationInProgress):
		return "That change is already being saved."
	}
	return "Something went wrong."
}

// statusOf is the HTTP status a page re-rendered after err should carry.
func statusOf(err error) int {
	var se *domain.ServerError
	switch {
	case errors.As(err, &se) && se.Status >= 400:
		return se.Status
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrMutationInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// record enqueues an audit entry. rec may be nil, including a nil pointer
// wrapped in the interface.
func record(rec ports.ActivityRecorder, identity domain.Identity, action, resource, id string, err error) {
	if rec == nil {
		return
	}
	if v := reflect.ValueOf(rec); v.Kind() == reflect.Pointer && v.IsNil() {
		return
	}
	rec.Record(service.NewActivity(identity, action, resource, id, err))
}

// sid returns the session id bound to the request, or "".
func sid(c echo.Context) string {
	gate, err := ctxGate(c)
	if err != nil {
		return ""
	}
	return gate.Store().SID()
}
