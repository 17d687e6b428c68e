package service

import (
	"errors"
	"time"

	"github.com/people-admin/console/internal/core/domain"
)

// NewActivity describes an action taken by identity. A nil err records a
// success.
func NewActivity(identity domain.Identity, action, resource, resourceID string, err error) domain.Activity {
	outcome := domain.OutcomeSuccess
	if err != nil {
		outcome = domain.OutcomeFailure
	}
	return domain.Activity{
		ActorID:    identity.ID,
		ActorEmail: identity.Email,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	}
}

// IsSessionError reports whether err ended the session and needs a fresh
// sign-in rather than a local error message.
func IsSessionError(err error) bool {
	return errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrUnauthorized)
}
