package domain

import "time"

// AuditEntry is an immutable record of an auth event.
type AuditEntry struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	EmployeeID string         `json:"employee_id,omitempty"`
	Scope      string         `json:"scope,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
