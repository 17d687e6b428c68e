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

const rolesRoute = "/roles"

var roleColumns = []table.Column{
	{Key: "name", Header: "Name", Align: "left"},
	{Key: "description", Header: "Description", Align: "left"},
	{Key: "createdAt", Header: "Created", Align: "left"},
	{Key: "actions", Header: "Actions", Align: "right"},
}

// RoleHandler serves the roles list page, its table fragment and the
// create, edit and delete flows.
type RoleHandler struct {
	roles    ports.RoleClient
	guard    *service.MutationGuard
	views    *Presenter
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewRoleHandler(roles ports.RoleClient, guard *service.MutationGuard, views *Presenter, activity ports.ActivityRecorder, log zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		roles:    roles,
		guard:    guard,
		views:    views,
		activity: activity,
		log:      log.With().Str("component", "role_handler").Logger(),
	}
}

type roleForm struct {
	Name        string `form:"name" validate:"required,max=60"`
	Description string `form:"description" validate:"required,max=500"`
}

func (h *RoleHandler) List(c echo.Context) error {
	return c.Render(http.StatusOK, "roles_list", h.views.View(c, "Roles", "roles", h.tableData(c, table.Loading[domain.Role](table.ParseQuery(c.QueryParams())))))
}

func (h *RoleHandler) Table(c echo.Context) error {
	q := table.ParseQuery(c.QueryParams())

	rows, err := h.roles.List(c.Request().Context())
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("list roles failed")
		data := h.tableData(c, table.Failed[domain.Role](q, err))
		data.Error = errorMessage(err)
		return c.Render(http.StatusOK, "roles_table", data)
	}
	return c.Render(http.StatusOK, "roles_table", h.tableData(c, table.Build(rows, q)))
}

func (h *RoleHandler) CreatePage(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, false, "", roleForm{}, nil, "")
}

func (h *RoleHandler) Create(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	form, fe, err := h.bind(c)
	if err != nil {
		return err
	}
	if len(fe) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, false, "", form, fe, "")
	}

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceRoles, "new"))
	if err != nil {
		return h.renderForm(c, statusOf(err), false, "", form, nil, errorMessage(err))
	}
	defer release()

	created, err := h.roles.Create(c.Request().Context(), domain.CreateRoleInput{Name: form.Name, Description: form.Description})
	id := ""
	if created != nil {
		id = created.ID
	}
	record(h.activity, identity, domain.ActionCreate, domain.ResourceRoles, id, err)
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Msg("create role failed")
		return h.renderForm(c, statusOf(err), false, "", form, nil, errorMessage(err))
	}

	h.views.Flash(c, domain.FlashSuccess, "Role created")
	return c.Redirect(http.StatusSeeOther, rolesRoute)
}

func (h *RoleHandler) EditPage(c echo.Context) error {
	id := c.Param("id")
	role, err := h.roles.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, true, id, roleForm{Name: role.Name, Description: role.Description}, nil, "")
}

func (h *RoleHandler) Update(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	form, fe, err := h.bind(c)
	if err != nil {
		return err
	}
	if len(fe) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, true, id, form, fe, "")
	}

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceRoles, id))
	if err != nil {
		return h.renderForm(c, statusOf(err), true, id, form, nil, errorMessage(err))
	}
	defer release()

	_, err = h.roles.Update(c.Request().Context(), id, domain.UpdateRoleInput{Name: &form.Name, Description: &form.Description})
	record(h.activity, identity, domain.ActionUpdate, domain.ResourceRoles, id, err)
	if err != nil {
		if service.IsSessionError(err) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		h.log.Warn().Err(err).Str("role_id", id).Msg("update role failed")
		return h.renderForm(c, statusOf(err), true, id, form, nil, errorMessage(err))
	}

	h.views.Flash(c, domain.FlashSuccess, "Role updated")
	return c.Redirect(http.StatusSeeOther, rolesRoute)
}

func (h *RoleHandler) DeletePage(c echo.Context) error {
	id := c.Param("id")
	return c.Render(http.StatusOK, "confirm_delete", h.views.View(c, "Delete role", "roles", views.ConfirmData{
		Title:     "Delete role",
		Message:   "This role will be permanently removed. Users holding it may lose access.",
		Action:    rolesRoute + "/" + id + "/delete",
		CancelURL: rolesRoute,
	}))
}

func (h *RoleHandler) Delete(c echo.Context) error {
	_, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	release, err := h.guard.Acquire(c.Request().Context(), service.MutationKey(sid(c), domain.ResourceRoles, id))
	if err != nil {
		h.views.Flash(c, domain.FlashInfo, errorMessage(err))
		return c.Redirect(http.StatusSeeOther, rolesRoute)
	}
	defer release()

	err = h.roles.Delete(c.Request().Context(), id)
	record(h.activity, identity, domain.ActionDelete, domain.ResourceRoles, id, err)
	if err != nil {
		if service.IsSessionError(err) {
			return err
		}
		h.log.Warn().Err(err).Str("role_id", id).Msg("delete role failed")
		h.views.Flash(c, domain.FlashError, "Could not delete role: "+errorMessage(err))
		return c.Redirect(http.StatusSeeOther, rolesRoute)
	}

	h.views.Flash(c, domain.FlashSuccess, "Role deleted")
	return c.Redirect(http.StatusSeeOther, rolesRoute)
}

func (h *RoleHandler) bind(c echo.Context) (roleForm, FieldErrors, error) {
	var form roleForm
	if err := c.Bind(&form); err != nil {
		return form, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)

	if err := c.Validate(&form); err != nil {
		fe, ok := fieldErrors(err)
		if !ok {
			return form, nil, err
		}
		return form, fe, nil
	}
	return form, nil, nil
}

func (h *RoleHandler) tableData(c echo.Context, page table.Page[domain.Role]) views.TableData {
	data := views.TableData{
		Resource:  domain.ResourceRoles,
		Columns:   roleColumns,
		Query:     page.Query,
		Page:      page,
		PageSizes: table.PageSizes,
	}
	if gate, err := ctxGate(c); err == nil {
		data.Perms = views.NewPermissions(gate)
	}
	return data
}

func (h *RoleHandler) renderForm(c echo.Context, status int, editing bool, id string, form roleForm, fe FieldErrors, message string) error {
	data := views.FormData{
		Action:    rolesRoute + "/create",
		CancelURL: rolesRoute,
		Editing:   editing,
		Values:    form,
		Errors:    fe,
		Error:     message,
	}
	title := "New role"
	if editing {
		data.Action = rolesRoute + "/" + id + "/edit"
		title = "Edit role"
	}
	return c.Render(status, "roles_form", h.views.View(c, title, "roles", data))
}
