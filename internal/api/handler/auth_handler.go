package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgIncompleteProfile  = "The server returned an incomplete profile. Contact an administrator."
	msgResetSent          = "If the address is registered, a reset link is on its way."
	msgPasswordReset      = "Password updated. Sign in with your new password."
)

type AuthHandler struct {
	auth     ports.AuthClient
	views    *Presenter
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewAuthHandler(auth ports.AuthClient, views *Presenter, activity ports.ActivityRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, views: views, activity: activity, log: log.With().Str("component", "auth_handler").Logger()}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type forgotForm struct {
	Email string `form:"email" validate:"required,email"`
}

type resetForm struct {
	Token    string `form:"token" validate:"required"`
	Password string `form:"password" validate:"required,min=6"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
}

// LoginPage renders the sign-in form. A signed-in user goes to the landing page.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	gate, err := ctxGate(c)
	if err != nil {
		return err
	}
	if _, ok := gate.Identity(); ok {
		return c.Redirect(http.StatusSeeOther, domain.LandingRoute)
	}
	return h.renderLogin(c, http.StatusOK, views.AuthFormData{})
}

// Login exchanges the submitted credentials for an access token and commits
// the session. Failures re-render the form and leave the session untouched.
func (h *AuthHandler) Login(c echo.Context) error {
	gate, err := ctxGate(c)
	if err != nil {
		return err
	}

	var form loginForm
	if err := c.Bind(&form); err != nil {
		return h.renderLogin(c, http.StatusBadRequest, views.AuthFormData{Error: "Invalid form submission"})
	}
	form.Email = strings.TrimSpace(form.Email)
	data := views.AuthFormData{Email: form.Email}

	if err := c.Validate(&form); err != nil {
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			return h.renderLogin(c, http.StatusUnprocessableEntity, data)
		}
		return err
	}

	ctx := c.Request().Context()
	res, err := h.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		record(h.activity, domain.Identity{Email: form.Email}, domain.ActionLogin, domain.ResourceSession, "", err)
		if errors.Is(err, domain.ErrUnauthorized) {
			data.Error = msgInvalidCredentials
			return h.renderLogin(c, http.StatusUnauthorized, data)
		}
		h.log.Warn().Err(err).Str("email", form.Email).Msg("login failed")
		data.Error = errorMessage(err)
		return h.renderLogin(c, statusOf(err), data)
	}

	identity := loginIdentity(res)
	var credential string
	if res != nil {
		credential = res.AccessToken
	}
	landing, err := gate.Login(ctx, credential, identity)
	if err != nil {
		record(h.activity, identity, domain.ActionLogin, domain.ResourceSession, identity.ID, err)
		if errors.Is(err, domain.ErrInvalidIdentity) || errors.Is(err, domain.ErrMalformedCredential) || errors.Is(err, domain.ErrSessionExpired) {
			h.log.Warn().Err(err).Str("email", form.Email).Msg("login response rejected")
			data.Error = msgIncompleteProfile
			return h.renderLogin(c, http.StatusBadGateway, data)
		}
		return err
	}

	record(h.activity, identity, domain.ActionLogin, domain.ResourceSession, identity.ID, nil)
	h.log.Info().Str("user_id", identity.ID).Msg("signed in")
	return c.Redirect(http.StatusSeeOther, landing)
}

// Logout clears the session. Signing out twice is harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	gate, err := ctxGate(c)
	if err != nil {
		return err
	}
	identity, signedIn := gate.Identity()

	target, err := gate.Logout(c.Request().Context(), c.Request().URL.Path)
	if err != nil {
		return err
	}
	if signedIn {
		record(h.activity, identity, domain.ActionLogout, domain.ResourceSession, identity.ID, nil)
	}
	if target == "" {
		target = domain.LoginRoute
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (h *AuthHandler) ForgotPasswordPage(c echo.Context) error {
	return c.Render(http.StatusOK, "forgot_password", h.views.View(c, "Forgot password", "auth", views.AuthFormData{}))
}

// ForgotPassword asks the API to mail a reset link. The notice does not
// reveal whether the address exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var form forgotForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	form.Email = strings.TrimSpace(form.Email)
	data := views.AuthFormData{Email: form.Email}

	if err := c.Validate(&form); err != nil {
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			return c.Render(http.StatusUnprocessableEntity, "forgot_password", h.views.View(c, "Forgot password", "auth", data))
		}
		return err
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), form.Email); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.log.Warn().Err(err).Msg("forgot password failed")
		data.Error = errorMessage(err)
		return c.Render(statusOf(err), "forgot_password", h.views.View(c, "Forgot password", "auth", data))
	}

	data.Notice = msgResetSent
	return c.Render(http.StatusOK, "forgot_password", h.views.View(c, "Forgot password", "auth", data))
}

func (h *AuthHandler) ResetPasswordPage(c echo.Context) error {
	data := views.AuthFormData{Token: c.QueryParam("token")}
	return c.Render(http.StatusOK, "reset_password", h.views.View(c, "Reset password", "auth", data))
}

// ResetPassword submits a new password for a reset token and sends the
// user back to the sign-in page.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var form resetForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	data := views.AuthFormData{Token: form.Token}

	if err := c.Validate(&form); err != nil {
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			return c.Render(http.StatusUnprocessableEntity, "reset_password", h.views.View(c, "Reset password", "auth", data))
		}
		return err
	}

	if err := h.auth.ResetPassword(c.Request().Context(), form.Token, form.Password); err != nil {
		h.log.Warn().Err(err).Msg("reset password failed")
		data.Error = errorMessage(err)
		return c.Render(statusOf(err), "reset_password", h.views.View(c, "Reset password", "auth", data))
	}

	h.views.Flash(c, domain.FlashSuccess, msgPasswordReset)
	return c.Redirect(http.StatusSeeOther, domain.LoginRoute)
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, data views.AuthFormData) error {
	return c.Render(status, "login", h.views.View(c, "Sign in", "auth", data))
}

// loginIdentity projects the login response onto a session identity. Missing
// optional fields are filled in when the session is committed.
func loginIdentity(res *ports.LoginResult) domain.Identity {
	if res == nil || res.User == nil {
		return domain.Identity{}
	}
	identity := domain.Identity{
		ID:    res.User.ID,
		Email: res.User.Email,
		Name:  res.User.Name,
	}
	if res.User.Role != nil {
		identity.Role = *res.User.Role
	}
	return identity
}
