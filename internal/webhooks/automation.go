package webhooks

import (
	"encoding/json"
	"fmt"
	"time"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/lifecycle"
)

// AutomationEnvelope is the automation provider's webhook body. Field names
// are camelCase on the wire; event names use the dot form (call.started,
// call.ended, call.recording.ready, call.transcript.ready, call.escalated).
//
// Keep it minimal and provider-adapter-only. Business logic (merge decisions)
// is not made here.
type AutomationEnvelope struct {
	Event      string `json:"event"`
	CallID     string `json:"callId"`
	FromNumber string `json:"fromNumber"`
	ToNumber   string `json:"toNumber"`
	Direction  string `json:"direction"`
	Timestamp  string `json:"timestamp"`

	Duration    *int        `json:"duration,omitempty"`
	Status      string      `json:"status,omitempty"`
	Disposition string      `json:"disposition,omitempty"`
	Escalated   *bool       `json:"escalated,omitempty"`
	EscalatedTo string      `json:"escalatedTo,omitempty"`
	Cost        json.Number `json:"cost,omitempty"`
	Tags        []string    `json:"tags,omitempty"`

	RecordingURL  string   `json:"recordingUrl,omitempty"`
	Transcript    string   `json:"transcript,omitempty"`
	TranscriptURL string   `json:"transcriptUrl,omitempty"`
	Intent        []string `json:"intent,omitempty"`
}

var automationEvents = map[string]lifecycle.EventType{
	"call.started":          lifecycle.EventStarted,
	"call.ended":            lifecycle.EventEnded,
	"call.recording.ready":  lifecycle.EventRecordingReady,
	"call.transcript.ready": lifecycle.EventTranscriptReady,
	"call.escalated":        lifecycle.EventEscalated,
}

// ParseAutomationEvent decodes one delivery and maps it onto the normalized
// lifecycle event. ok is false for unknown event names, which callers
// acknowledge and drop.
func ParseAutomationEvent(body []byte, now time.Time) (ev lifecycle.Event, ok bool, err error) {
	var env AutomationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return lifecycle.Event{}, false, fmt.Errorf("webhooks: decode automation body: %w", err)
	}

	typ, known := automationEvents[env.Event]
	if !known {
		return lifecycle.Event{}, false, nil
	}

	cost, err := parseCostCents(env.Cost)
	if err != nil {
		return lifecycle.Event{}, false, err
	}
	status, err := normalizeStatus(env.Status)
	if err != nil {
		return lifecycle.Event{}, false, err
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	return lifecycle.Event{
		Provider:   calls.ProviderAutomation,
		ExternalID: env.CallID,
		Type:       typ,
		Timestamp:  parseTimestamp(env.Timestamp, now),

		FromNumber: env.FromNumber,
		ToNumber:   env.ToNumber,
		Direction:  normalizeDirection(env.Direction),

		DurationSeconds: env.Duration,
		Status:          status,
		Disposition:     env.Disposition,
		Escalated:       env.Escalated,
		EscalatedTo:     env.EscalatedTo,
		CostCents:       cost,
		Tags:            env.Tags,

		RecordingURL:  env.RecordingURL,
		Transcript:    env.Transcript,
		TranscriptURL: env.TranscriptURL,
		Intent:        env.Intent,

		Raw: raw,
	}, true, nil
}
