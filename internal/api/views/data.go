package views

import (
	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/table"
)

// Checker answers permission questions. The authorization gate satisfies it.
type Checker interface {
	HasPermission(allowed ...string) bool
}

// Console actions a template can ask about.
const (
	CanCreateUser = "users.create"
	CanEditUser   = "users.edit"
	CanDeleteUser = "users.delete"
	CanManageRole = "roles.manage"
)

var actionRoles = map[string][]string{
	CanCreateUser: domain.UserEditors,
	CanEditUser:   domain.UserEditors,
	CanDeleteUser: domain.UserDeleters,
	CanManageRole: domain.RoleManagers,
}

// Permissions lets templates ask for a named action without knowing role
// names.
type Permissions struct {
	checker Checker
}

func NewPermissions(c Checker) Permissions {
	return Permissions{checker: c}
}

// Allows reports whether the signed-in user may perform action.
func (p Permissions) Allows(action string) bool {
	roles, ok := actionRoles[action]
	if !ok || p.checker == nil {
		return false
	}
	return p.checker.HasPermission(roles...)
}

// View is the data every full page receives.
type View struct {
	Title   string
	Section string
	Locale  string
	Locales []string
	User    *domain.Identity
	Perms   Permissions
	Flashes []domain.Flash
	CSRF    string
	Data    any
}

// FormData backs the create and edit forms.
type FormData struct {
	Action    string
	CancelURL string
	Editing   bool
	Values    any
	Errors    map[string]string
	Error     string
	Roles     []domain.Role
}

// ConfirmData backs the delete confirmation dialog.
type ConfirmData struct {
	Title     string
	Message   string
	Action    string
	CancelURL string
}

// TableData backs a table fragment and the loading shell of a list page.
type TableData struct {
	Resource  string
	Columns   []table.Column
	Query     table.Query
	Page      any
	Perms     Permissions
	PageSizes []int
	Error     string
}

// DashboardData backs the dashboard.
type DashboardData struct {
	UserCount     int
	RoleCount     int
	CountsError   string
	Activity      []domain.Activity
	ActivityError string
}

// AuthFormData backs the login, forgot and reset password pages.
type AuthFormData struct {
	Email  string
	Token  string
	Errors map[string]string
	Error  string
	Notice string
}

// ErrorData backs the error page.
type ErrorData struct {
	Status  int
	Message string
}
