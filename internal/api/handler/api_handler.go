package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/people-admin/console/internal/api/views"
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/core/service"
	"github.com/people-admin/console/internal/core/table"
)

// APIHandler exposes the console's session and table state as JSON.
type APIHandler struct {
	users ports.UserClient
	roles ports.RoleClient
}

func NewAPIHandler(users ports.UserClient, roles ports.RoleClient) *APIHandler {
	return &APIHandler{users: users, roles: roles}
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
	Locale        string           `json:"locale"`
	Permissions   []string         `json:"permissions"`
}

type pageMeta struct {
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	Search     string `json:"search,omitempty"`
	Matched    int    `json:"matched"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type userPageResponse struct {
	Data []domain.User `json:"data"`
	Meta pageMeta      `json:"meta"`
}

type rolePageResponse struct {
	Data []domain.Role `json:"data"`
	Meta pageMeta      `json:"meta"`
}

// Session returns the signed-in identity and the console actions it allows.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/session [get]
func (h *APIHandler) Session(c echo.Context) error {
	gate, identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	checker := views.NewPermissions(gate)
	perms := make([]string, 0, 4)
	for _, action := range []string{views.CanCreateUser, views.CanEditUser, views.CanDeleteUser, views.CanManageRole} {
		if checker.Allows(action) {
			perms = append(perms, action)
		}
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &identity,
		Locale:        service.NegotiateLocale(gate.Store().Locale(), c.Request().Header.Get("Accept-Language")),
		Permissions:   perms,
	})
}

// Users returns one page of the users table.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        q     query     string  false  "Search term"
// @Param        page  query     int     false  "Page number"    default(1)
// @Param        size  query     int     false  "Rows per page"  Enums(5, 10, 25, 100)  default(10)
// @Success      200   {object}  userPageResponse
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/users [get]
func (h *APIHandler) Users(c echo.Context) error {
	rows, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	page := table.Build(rows, table.ParseQuery(c.QueryParams()))
	return c.JSON(http.StatusOK, userPageResponse{Data: page.Rows, Meta: metaOf(page.Query, page.Matched, page.Total, page.PageCount)})
}

// Roles returns one page of the roles table.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Param        q     query     string  false  "Search term"
// @Param        page  query     int     false  "Page number"    default(1)
// @Param        size  query     int     false  "Rows per page"  Enums(5, 10, 25, 100)  default(10)
// @Success      200   {object}  rolePageResponse
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/roles [get]
func (h *APIHandler) Roles(c echo.Context) error {
	rows, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}
	page := table.Build(rows, table.ParseQuery(c.QueryParams()))
	return c.JSON(http.StatusOK, rolePageResponse{Data: page.Rows, Meta: metaOf(page.Query, page.Matched, page.Total, page.PageCount)})
}

func metaOf(q table.Query, matched, total, pages int) pageMeta {
	return pageMeta{
		Page:       q.Page,
		Size:       q.Size,
		Search:     q.Search,
		Matched:    matched,
		Total:      total,
		TotalPages: pages,
	}
}
