package domain

import "time"

const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Role name sets used by the console's permission checks. Views and routes
// pass these to the authorization gate; nothing else compares role names.
var (
	UserEditors  = []string{RoleSuperAdmin, RoleAdmin}
	UserDeleters = []string{RoleSuperAdmin}
	RoleManagers = []string{RoleSuperAdmin}
)

// RoleRef is the embedded role reference carried by identities and users.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity is the signed-in user's profile projection.
type Identity struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Role  RoleRef `json:"role"`
}

// User is a server-owned user record.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      RoleRef   `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity projects the user record onto the session identity.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Role is a server-owned role record.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"roleId"`
}

// UpdateUserInput is a partial update: nil fields are left untouched by the
// API and are not serialised.
type UpdateUserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	RoleID   *string `json:"roleId,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type CreateRoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateRoleInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
