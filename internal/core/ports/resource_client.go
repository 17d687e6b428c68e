package ports

import (
	"context"

	"github.com/people-admin/console/internal/core/domain"
)

// UserClient is the typed CRUD surface of the /users resource.
type UserClient interface {
	// List fails open: a non-array payload yields an empty slice.
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error)
	// Update never sends an empty password.
	Update(ctx context.Context, id string, in domain.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// RoleClient is the typed CRUD surface of the /roles resource.
type RoleClient interface {
	List(ctx context.Context) ([]domain.Role, error)
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	Create(ctx context.Context, in domain.CreateRoleInput) (*domain.Role, error)
	Update(ctx context.Context, id string, in domain.UpdateRoleInput) (*domain.Role, error)
	Delete(ctx context.Context, id string) error
}

// ProfileFetcher loads the full profile behind a session identity.
type ProfileFetcher interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
