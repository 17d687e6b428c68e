package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
)

const rolesPath = "/roles"

// RoleClient implements ports.RoleClient over /roles.
type RoleClient struct {
	api *Client
	log zerolog.Logger
}

// NewRoleClient returns a RoleClient sending through api.
func NewRoleClient(api *Client, log zerolog.Logger) *RoleClient {
	return &RoleClient{api: api, log: log.With().Str("resource", domain.ResourceRoles).Logger()}
}

func (c *RoleClient) List(ctx context.Context) ([]domain.Role, error) {
	raw, err := c.api.Raw(ctx, http.MethodGet, rolesPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[domain.Role](raw, domain.ResourceRoles, c.log), nil
}

func (c *RoleClient) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	var out domain.Role
	if err := c.api.Do(ctx, http.MethodGet, rolePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RoleClient) Create(ctx context.Context, in domain.CreateRoleInput) (*domain.Role, error) {
	var out domain.Role
	if err := c.api.Do(ctx, http.MethodPost, rolesPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RoleClient) Update(ctx context.Context, id string, in domain.UpdateRoleInput) (*domain.Role, error) {
	var out domain.Role
	if err := c.api.Do(ctx, http.MethodPatch, rolePath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RoleClient) Delete(ctx context.Context, id string) error {
	return c.api.Do(ctx, http.MethodDelete, rolePath(id), nil, nil)
}

func rolePath(id string) string {
	return rolesPath + "/" + url.PathEscape(id)
}
