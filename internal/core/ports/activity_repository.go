package ports

import (
	"context"

	"github.com/people-admin/console/internal/core/domain"
)

// ActivityRepository persists the console audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.Activity) error
	// Recent returns the newest activities first.
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
}

// ActivityRecorder accepts activities for asynchronous persistence.
type ActivityRecorder interface {
	Record(activity domain.Activity)
}
