package ports

import (
	"context"

	"github.com/people-admin/console/internal/core/domain"
)

// LoginUser is the optional user block of a login response.
type LoginUser struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name,omitempty"`
	Role  *domain.RoleRef `json:"role,omitempty"`
}

// LoginResult is the body returned by POST /auth.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	User        *LoginUser `json:"user,omitempty"`
}

// AuthClient talks to the API's authentication endpoints.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}
