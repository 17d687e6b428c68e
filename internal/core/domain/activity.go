package domain

import "time"

// Activity actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// Activity resources.
const (
	ResourceUsers   = "users"
	ResourceRoles   = "roles"
	ResourceSession = "session"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Activity is one console action recorded in the audit trail.
type Activity struct {
	ID         string    `json:"id" bson:"_id"`
	ActorID    string    `json:"actorId" bson:"actor_id"`
	ActorEmail string    `json:"actorEmail" bson:"actor_email"`
	Action     string    `json:"action" bson:"action"`
	Resource   string    `json:"resource" bson:"resource"`
	ResourceID string    `json:"resourceId,omitempty" bson:"resource_id,omitempty"`
	Outcome    string    `json:"outcome" bson:"outcome"`
	OccurredAt time.Time `json:"occurredAt" bson:"occurred_at"`
}

// Flash levels.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a transient notification shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
