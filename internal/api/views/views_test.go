package views

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/table"
)

type roleChecker string

func (r roleChecker) HasPermission(allowed ...string) bool {
	for _, role := range allowed {
		if role == string(r) {
			return true
		}
	}
	return false
}

func render(t *testing.T, name string, data any) string {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data, nil); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func page(data any) View {
	return View{
		Title:   "Test",
		Locale:  "en",
		Locales: []string{"en", "es"},
		User:    &domain.Identity{ID: "u1", Name: "Ana", Role: domain.RoleRef{Name: "admin"}},
		Perms:   NewPermissions(roleChecker("admin")),
		CSRF:    "tok",
		Data:    data,
	}
}

type formValues struct {
	Name        string
	Email       string
	RoleID      string
	Description string
	IsActive    bool
}

var userColumns = []table.Column{
	{Key: "name", Header: "Name", Align: "left"},
	{Key: "actions", Header: "Actions", Align: "right"},
}

func TestRender_PagesParse(t *testing.T) {
	cases := map[string]any{
		"login":           AuthFormData{Email: "a@example.com"},
		"forgot_password": AuthFormData{Notice: "Check your inbox"},
		"reset_password":  AuthFormData{Token: "reset-1"},
		"dashboard":       DashboardData{UserCount: 3, RoleCount: 2},
		"users_form":      FormData{Action: "/users/create", CancelURL: "/users", Values: formValues{RoleID: "r1"}, Roles: []domain.Role{{ID: "r1", Name: "admin"}}},
		"roles_form":      FormData{Action: "/roles/create", CancelURL: "/roles", Values: formValues{}},
		"confirm_delete":  ConfirmData{Title: "Delete user", Action: "/users/u1/delete", CancelURL: "/users"},
		"error":           ErrorData{Status: 404, Message: "not found"},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			out := render(t, name, page(data))
			if !strings.Contains(out, "<!DOCTYPE html>") || !strings.Contains(out, `value="tok"`) {
				t.Fatalf("expected full layout with csrf token, got %s", out)
			}
		})
	}
}

func TestRender_LayoutShowsFlashesAndUser(t *testing.T) {
	v := page(DashboardData{})
	v.Flashes = []domain.Flash{{Level: domain.FlashSuccess, Message: "User created"}}
	out := render(t, "dashboard", v)

	if !strings.Contains(out, `<div class="alert alert-success">User created</div>`) {
		t.Fatalf("expected flash, got %s", out)
	}
	if !strings.Contains(out, `<span class="badge badge-primary">admin</span>`) {
		t.Fatalf("expected role badge")
	}
	if !strings.Contains(out, "Nothing recorded yet.") {
		t.Fatalf("expected empty activity notice")
	}
}

func TestRender_SignedOutLayoutHidesNavigation(t *testing.T) {
	v := page(AuthFormData{})
	v.User = nil
	out := render(t, "login", v)
	if strings.Contains(out, "Sign out") || strings.Contains(out, `href="/users"`) {
		t.Fatalf("signed-out page must not show navigation")
	}
}

func TestRender_TableBranches(t *testing.T) {
	rows := []domain.User{{ID: "u1", Name: "Ana", Email: "ana@example.com"}}
	q := table.Query{Page: 1, Size: 10}

	tests := []struct {
		name string
		page table.Page[domain.User]
		want string
	}{
		{"loading", table.Loading[domain.User](q), "table-loading"},
		{"error", table.Failed[domain.User](q, errors.New("boom")), "Could not load"},
		{"empty", table.Build([]domain.User{}, q), "No records"},
		{"rows", table.Build(rows, q), "ana@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, "users_table", TableData{
				Resource:  domain.ResourceUsers,
				Columns:   userColumns,
				Query:     tt.page.Query,
				Page:      tt.page,
				Perms:     NewPermissions(roleChecker("admin")),
				PageSizes: table.PageSizes,
				Error:     "Could not load",
			})
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in %s", tt.want, out)
			}
		})
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "nope", nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown template")
	}
}

func TestPermissions(t *testing.T) {
	admin := NewPermissions(roleChecker(domain.RoleAdmin))
	if !admin.Allows(CanEditUser) || admin.Allows(CanDeleteUser) || admin.Allows(CanManageRole) {
		t.Fatalf("unexpected admin permissions")
	}
	root := NewPermissions(roleChecker(domain.RoleSuperAdmin))
	if !root.Allows(CanDeleteUser) || !root.Allows(CanManageRole) {
		t.Fatalf("superadmin must be allowed everything")
	}
	if (Permissions{}).Allows(CanEditUser) {
		t.Fatalf("zero permissions must deny")
	}
	if root.Allows("users.export") {
		t.Fatalf("unknown action must be denied")
	}
}
