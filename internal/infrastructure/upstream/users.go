package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
)

const usersPath = "/users"

// UserClient implements ports.UserClient over /users.
type UserClient struct {
	api *Client
	log zerolog.Logger
}

// NewUserClient returns a UserClient sending through api.
func NewUserClient(api *Client, log zerolog.Logger) *UserClient {
	return &UserClient{api: api, log: log.With().Str("resource", domain.ResourceUsers).Logger()}
}

func (c *UserClient) List(ctx context.Context) ([]domain.User, error) {
	raw, err := c.api.Raw(ctx, http.MethodGet, usersPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[domain.User](raw, domain.ResourceUsers, c.log), nil
}

func (c *UserClient) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := c.api.Do(ctx, http.MethodGet, userPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *UserClient) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	var out domain.User
	if err := c.api.Do(ctx, http.MethodPost, usersPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends a partial update. An empty password means "unchanged" and is
// never put on the wire.
func (c *UserClient) Update(ctx context.Context, id string, in domain.UpdateUserInput) (*domain.User, error) {
	if in.Password != nil && *in.Password == "" {
		in.Password = nil
	}
	var out domain.User
	if err := c.api.Do(ctx, http.MethodPatch, userPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *UserClient) Delete(ctx context.Context, id string) error {
	return c.api.Do(ctx, http.MethodDelete, userPath(id), nil, nil)
}

func userPath(id string) string {
	return usersPath + "/" + url.PathEscape(id)
}
