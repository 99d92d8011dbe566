package calls

import "time"

// Call represents one phone conversation handled by the AI receptionist.
//
// Identity: every provider webhook correlates on (Provider, ExternalID); the
// pair is unique system-wide. The internal ID is owned by the store.
//
// Multi-tenant invariant: OrgID is required on every persisted row and is
// immutable once set. A call created from a voice event before any org context
// is known carries the org resolved from its phone number at creation time.
//
// Lifecycle facts arrive out of order and partially; merge logic lives in
// internal/lifecycle. This model only guarantees that Events is append-only:
// nothing may rewrite or drop records already in the log.
type Call struct {
	ID       string   `json:"id" db:"id"`
	Provider Provider `json:"provider" db:"provider"`
	// ExternalID is the provider's call identifier, e.g. Retell's call_id.
	ExternalID string `json:"external_id" db:"external_id"`

	OrgID         string `json:"org_id" db:"org_id"`
	PhoneNumberID string `json:"phone_number_id,omitempty" db:"phone_number_id"`

	FromNumber string        `json:"from_number" db:"from_number"`
	ToNumber   string        `json:"to_number" db:"to_number"`
	Direction  CallDirection `json:"direction" db:"direction"`

	Status CallStatus `json:"status" db:"status"`

	// DurationSeconds is 0 until an end event reports it.
	DurationSeconds int `json:"duration" db:"duration"`

	RecordingURL  string `json:"recording_url,omitempty" db:"recording_url"`
	Transcript    string `json:"transcript,omitempty" db:"transcript"`
	TranscriptURL string `json:"transcript_url,omitempty" db:"transcript_url"`

	// Intent tags come from transcript/analysis events and replace wholesale.
	Intent []string `json:"intent,omitempty" db:"intent"`

	// Disposition is a free-form outcome tag, e.g. "booked".
	Disposition string `json:"disposition,omitempty" db:"disposition"`

	Escalated   bool   `json:"escalated" db:"escalated"`
	EscalatedTo string `json:"escalated_to,omitempty" db:"escalated_to"`

	// CostCents is the provider-reported cost in minor units; nil until a
	// provider reports one. Aggregation treats nil as zero.
	CostCents *int64 `json:"cost_cents,omitempty" db:"cost_cents"`

	Tags []string `json:"tags,omitempty" db:"tags"`

	// Events is the append-only lifecycle log: every webhook payload applied
	// to this call, in arrival order. It replaces the old flattened metadata
	// bag so that key collisions between event types cannot destroy history.
	Events []EventRecord `json:"events,omitempty" db:"events"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EventRecord is one applied lifecycle event.
type EventRecord struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// AppendEvent adds a record to the lifecycle log.
func (c *Call) AppendEvent(eventType string, ts time.Time, payload map[string]any) {
	c.Events = append(c.Events, EventRecord{Type: eventType, Timestamp: ts, Payload: payload})
}

// LatestMetadata flattens the event log into a last-write-wins key/value view,
// for callers that want the legacy metadata shape. Later events override
// earlier ones key by key; the log itself is never mutated.
func (c *Call) LatestMetadata() map[string]any {
	out := map[string]any{}
	for _, rec := range c.Events {
		for k, v := range rec.Payload {
			out[k] = v
		}
	}
	return out
}

type Provider string

const (
	// ProviderVoice is the voice-AI provider (Retell-style snake_case events).
	ProviderVoice Provider = "voice"
	// ProviderAutomation is the workflow-automation tool (dot-form events).
	ProviderAutomation Provider = "automation"
)

type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
)

type CallStatus string

const (
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// ValidStatus reports whether s is a known call status. Providers may pass a
// terminal status directly in an end event; anything unknown is rejected.
func ValidStatus(s CallStatus) bool {
	switch s {
	case CallStatusRinging, CallStatusInProgress, CallStatusCompleted,
		CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	default:
		return false
	}
}
