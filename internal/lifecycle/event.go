package lifecycle

import (
	"fmt"
	"time"

	"receptionist-platform/internal/calls"
)

// EventType is the normalized name of a lifecycle fact. Webhook parsers map
// both providers' wire names (dot form and underscore form) onto these.
type EventType string

const (
	EventStarted         EventType = "started"
	EventEnded           EventType = "ended"
	EventRecordingReady  EventType = "recording_ready"
	EventTranscriptReady EventType = "transcript_ready"
	EventAnalyzed        EventType = "analyzed" // voice provider only
	EventEscalated       EventType = "escalated"
)

// Event is one provider webhook normalized into provider-agnostic shape.
// Optional fields are pointers (or zero values where absence and zero are
// equivalent) so the reconciler can distinguish "not reported" from "zero".
type Event struct {
	Provider   calls.Provider
	ExternalID string
	Type       EventType
	Timestamp  time.Time

	// Context hints used when this event is the first to create the call.
	OrgID         string
	PhoneNumberID string
	FromNumber    string
	ToNumber      string
	Direction     calls.CallDirection

	DurationSeconds *int
	// Status lets a provider pass a terminal status other than completed in
	// its end event (failed, busy, no_answer, canceled).
	Status      calls.CallStatus
	Disposition string
	Escalated   *bool
	EscalatedTo string
	CostCents   *int64
	Tags        []string

	RecordingURL  string
	Transcript    string
	TranscriptURL string
	Intent        []string
	Analysis      map[string]any

	// Raw is the full decoded webhook body; it is appended verbatim to the
	// call's event log.
	Raw map[string]any
}

func (e Event) validate() error {
	if e.Provider == "" {
		return fmt.Errorf("%w: provider required", ErrInvalidEvent)
	}
	if e.ExternalID == "" {
		return fmt.Errorf("%w: external id required", ErrInvalidEvent)
	}
	switch e.Type {
	case EventStarted, EventEnded, EventRecordingReady, EventTranscriptReady, EventAnalyzed, EventEscalated:
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp required", ErrInvalidEvent)
	}
	return nil
}

// dedupKey identifies one delivery for redelivery suppression. Two deliveries
// of the same fact share provider, external id, type and timestamp.
func (e Event) dedupKey() string {
	return fmt.Sprintf("webhook:seen:%s:%s:%s:%d", e.Provider, e.ExternalID, e.Type, e.Timestamp.UnixMilli())
}

// lockKey serializes concurrent deliveries touching the same call.
func (e Event) lockKey() string {
	return string(e.Provider) + "|" + e.ExternalID
}
