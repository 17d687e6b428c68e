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
	"github.com/people-admin/console/internal/core/service"
	"github.com/people-admin/console/internal/core/table"
)

const usersRoute = "/users"

var userColumns = []table.Column{
	{Key: "name", Header: "Name", Align: "left"},
	{Key: "email", Header: "Email", Align: "left"},
	{Key: "role", Header: "Role", Align: "left"},
	{Key: "isActive", Header: "Status", Align: "left"},
	{Key: "actions", Header: "Actions", Align: "right"},
}

// UserHandler serves the users list page, its table fragment and the
// create, edit and delete flows.
type UserHandler struct {
	users    ports.UserClient
	roles    ports.RoleClient
	guard    *service.MutationGuard
	views    *Presenter
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewUserHandler(users ports.UserClient, roles ports.RoleClient, guard *service.MutationGuard, views *Presenter, activity ports.ActivityRecorder, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		roles:    roles,
		guard:    guard,
		views:    views,
		activity: activity,
		log:      log.With().Str("component", "user_handler").Logger(),
	}
}

// userForm holds the create and edit inputs. Password is only required on
// create; an empty password on edit keeps the current one.
type userForm struct {
	Name     string `form:"name" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"omitempty,min=6"`
	RoleID   string `form:"roleId" validate:"required"`
	IsActive bool   `form:"isActive"`
}

func (f *userForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.RoleID = strings.TrimSpace(f.RoleID)
}

// List renders the page shell. Rows are loaded by the table fragment.
func (h *UserHandler) List(c echo.Context) error {
	return c.Render(http.StatusOK, "users_list", h.views.View(c, "Users", "users", h.tableData(c, table.Loading[domain.User](table.ParseQuery(c.QueryParams())))))
}

// Table fetches the collection and renders the requested page. Session
// failures propagate so the error handler can send the browser to sign in.
func (h *UserHandler) Table(c echo.Context) error {
	q := table.ParseQuery(c.QueryParams())

	rows, err := h.users.List(c.Request().Context())
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("list users failed")
		data := h.tableData(c, table.Failed[domain.User](q, err))
		data.Error = errorMessage(err)
		return c.Render(http.StatusOK, "users_table", data)
	}
	return c.Render(http.StatusOK, "users_table", h.tableData(c, table.Build(rows, q)))
}

func (h *UserHandler) CreatePage(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, false, "", userForm{IsActive: true}, nil, "")
}

// Create validates the form, then issues exactly one POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var form userForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	form.normalize()

	fe := h.validate(c, &form)
	if form.Password == "" {
		fe = withError(fe, "password", "This field is required")
	}
	if len(fe) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, false, "", form, fe, "")
	}

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceUsers, "new"))
	if err != nil {
		return h.renderForm(c, statusOf(err), false, "", form, nil, errorMessage(err))
	}
	defer release()

	created, err := h.users.Create(c.Request().Context(), domain.CreateUserInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		RoleID:   form.RoleID,
	})
	id := ""
	if created != nil {
		id = created.ID
	}
	record(h.activity, identity, domain.ActionCreate, domain.ResourceUsers, id, err)
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("create user failed")
		return h.renderForm(c, statusOf(err), false, "", form, nil, errorMessage(err))
	}

	h.views.Flash(c, domain.FlashSuccess, "User created")
	return c.Redirect(http.StatusSeeOther, usersRoute)
}

func (h *UserHandler) EditPage(c echo.Context) error {
	id := c.Param("id")
	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	form := userForm{Name: user.Name, Email: user.Email, RoleID: user.Role.ID, IsActive: user.IsActive}
	return h.renderForm(c, http.StatusOK, true, id, form, nil, "")
}

// Update issues exactly one PATCH /users/:id. An empty password is left out
// of the request.
func (h *UserHandler) Update(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	var form userForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	form.normalize()

	if fe := h.validate(c, &form); len(fe) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, true, id, form, fe, "")
	}

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceUsers, id))
	if err != nil {
		return h.renderForm(c, statusOf(err), true, id, form, nil, errorMessage(err))
	}
	defer release()

	in := domain.UpdateUserInput{
		Name:     &form.Name,
		Email:    &form.Email,
		RoleID:   &form.RoleID,
		IsActive: &form.IsActive,
	}
	if form.Password != "" {
		in.Password = &form.Password
	}

	_, err = h.users.Update(c.Request().Context(), id, in)
	record(h.activity, identity, domain.ActionUpdate, domain.ResourceUsers, id, err)
	if err != nil {
		if service.IsSessionError(err) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		h.log.Warn().Err(err).Str("user_id", id).Msg("update user failed")
		return h.renderForm(c, statusOf(err), true, id, form, nil, errorMessage(err))
	}

	h.views.Flash(c, domain.FlashSuccess, "User updated")
	return c.Redirect(http.StatusSeeOther, usersRoute)
}

// DeletePage renders the confirmation dialog without calling the API.
func (h *UserHandler) DeletePage(c echo.Context) error {
	id := c.Param("id")
	return c.Render(http.StatusOK, "confirm_delete", h.views.View(c, "Delete user", "users", views.ConfirmData{
		Title:     "Delete user",
		Message:   "This user will be permanently removed. This cannot be undone.",
		Action:    usersRoute + "/" + id + "/delete",
		CancelURL: usersRoute,
	}))
}

// Delete issues exactly one DELETE /users/:id and returns to the list, which
// refetches once. Failures are reported as a flash on the list.
func (h *UserHandler) Delete(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceUsers, id))
	if err != nil {
		h.views.Flash(c, domain.FlashInfo, errorMessage(err))
		return c.Redirect(http.StatusSeeOther, usersRoute)
	}
	defer release()

	err = h.users.Delete(c.Request().Context(), id)
	record(h.activity, identity, domain.ActionDelete, domain.ResourceUsers, id, err)
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Str("user_id", id).Msg("delete user failed")
		h.views.Flash(c, domain.FlashError, "Could not delete user: "+errorMessage(err))
		return c.Redirect(http.StatusSeeOther, usersRoute)
	}

	h.views.Flash(c, domain.FlashSuccess, "User deleted")
	return c.Redirect(http.StatusSeeOther, usersRoute)
}

func (h *UserHandler) tableData(c echo.Context, page table.Page[domain.User]) views.TableData {
	data := views.TableData{
		Resource:  domain.ResourceUsers,
		Columns:   userColumns,
		Query:     page.Query,
		Page:      page,
		PageSizes: table.PageSizes,
	}
	if gate, err := ctxGate(c); err == nil {
		data.Perms = views.NewPermissions(gate)
	}
	return data
}

func (h *UserHandler) validate(c echo.Context, form *userForm) FieldErrors {
	err := c.Validate(form)
	if err == nil {
		return nil
	}
	if fe, ok := fieldErrors(err); ok {
		return fe
	}
	return FieldErrors{"": err.Error()}
}

// renderForm renders the user form. The role options are loaded on every
// render; a failure leaves the select empty and shows an error.
func (h *UserHandler) renderForm(c echo.Context, status int, editing bool, id string, form userForm, fe FieldErrors, message string) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("list roles for user form failed")
		if message == "" {
			message = "Roles could not be loaded: " + errorMessage(err)
		}
		roles = []domain.Role{}
	}

	data := views.FormData{
		Action:    usersRoute + "/create",
		CancelURL: usersRoute,
		Editing:   editing,
		Values:    form,
		Errors:    fe,
		Error:     message,
		Roles:     roles,
	}
	title := "New user"
	if editing {
		data.Action = usersRoute + "/" + id + "/edit"
		title = "Edit user"
	}
	return c.Render(status, "users_form", h.views.View(c, title, "users", data))
}

func withError(fe FieldErrors, field, message string) FieldErrors {
	if fe == nil {
		fe = FieldErrors{}
	}
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
	return fe
}
