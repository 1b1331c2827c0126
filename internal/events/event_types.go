package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventLoggedOut              EventType = "logged_out"
	EventTokenRefreshed         EventType = "token_refreshed"
	EventRefreshRejected        EventType = "refresh_rejected"
	EventCredentialMigrated     EventType = "credential_migrated"
	EventBulkMigrationCompleted EventType = "bulk_migration_completed"
)

// AllEventTypes lists every type the auth core publishes.
var AllEventTypes = []EventType{
	EventLoginSucceeded,
	EventLoginFailed,
	EventLoggedOut,
	EventTokenRefreshed,
	EventRefreshRejected,
	EventCredentialMigrated,
	EventBulkMigrationCompleted,
}

// Login methods.
const (
	MethodCredentials = "credentials"
	MethodExternal    = "external"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	EmployeeID string      `json:"employee_id,omitempty"`
	Scope      string      `json:"scope,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an id and timestamp onto a new event.
func NewEvent(eventType EventType, employeeID, scope string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: employeeID,
		Scope:      scope,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// LoginPayload payload.
type LoginPayload struct {
	Method string `json:"method"`
	Reason string `json:"reason,omitempty"`
}

// CredentialMigratedPayload payload.
type CredentialMigratedPayload struct {
	Trigger string `json:"trigger"`
}

// BulkMigrationPayload payload.
type BulkMigrationPayload struct {
	Migrated int      `json:"migrated"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}
