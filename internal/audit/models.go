package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - org_id is required for tenancy isolation, except for rejected webhooks
//   where no tenant was resolved.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved client IP here.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	Provider      string `json:"provider,omitempty" db:"provider"`
	CallID        string `json:"call_id,omitempty" db:"call_id"`
	AppointmentID string `json:"appointment_id,omitempty" db:"appointment_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeWebhookRejected records a webhook that failed authentication.
	EventTypeWebhookRejected EventType = "webhook_rejected"
	// EventTypeContextMiss records a webhook whose dialed number resolved to
	// no active organization.
	EventTypeContextMiss EventType = "webhook_context_miss"
	// EventTypeAppointmentCreated records a booking made by the receptionist.
	EventTypeAppointmentCreated EventType = "appointment_created"

	EventTypeAdminAction EventType = "admin_action"
)
