package event

import (
	"time"

	"go-ceremony-portal/internal/model"
)

type Type string

const (
	TypeLoginSucceeded Type = "auth.login"
	TypeLoginFailed    Type = "auth.login_failed"
	TypeLogout         Type = "auth.logout"
	TypeAccessDenied   Type = "auth.access_denied"
	TypeUserCreated    Type = "user.created"
	TypeUserUpdated    Type = "user.updated"
	TypeUserDeleted    Type = "user.deleted"
	TypeRecordChanged  Type = "record.changed"
)

// Event is an auth-relevant fact published by services and middleware and
// persisted by the audit service.
type Event struct {
	ID        string           `json:"id"`
	Type      Type             `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Actor     model.AuditActor `json:"actor"`
	Status    string           `json:"status"`
	Resource  string           `json:"resource,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDenied  = "denied"
)

func (e Event) AuditEntry() model.AuditEntry {
	return model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:      e.Actor,
		Status:     e.Status,
		Resource:   e.Resource,
		Error:      e.Error,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
