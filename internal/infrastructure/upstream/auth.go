package upstream

import (
	"context"
	"net/http"

	"github.com/people-admin/console/internal/core/ports"
)

// AuthClient implements ports.AuthClient.
type AuthClient struct {
	api *Client
}

// NewAuthClient returns an AuthClient sending through api.
func NewAuthClient(api *Client) *AuthClient {
	return &AuthClient{api: api}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token. A 401 comes back as
// domain.ErrUnauthorized; the caller is on a public route so no session is
// cleared.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	var out ports.LoginResult
	if err := c.api.Do(ctx, http.MethodPost, "/auth", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AuthClient) ForgotPassword(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.api.Do(ctx, http.MethodPost, "/auth/forgot-password", body, nil)
}

func (c *AuthClient) ResetPassword(ctx context.Context, token, password string) error {
	body := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{Token: token, Password: password}
	return c.api.Do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}
