package webhooks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/lifecycle"
)

// VoiceEnvelope is the voice provider's webhook body. Field names are
// snake_case on the wire; event names use the underscore form (call_started,
// call_ended, call_analyzed, call_recording_ready, call_transcript_ready,
// call_escalated).
type VoiceEnvelope struct {
	Event      string `json:"event"`
	CallID     string `json:"call_id"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
	Direction  string `json:"direction"`
	Timestamp  string `json:"timestamp"`

	Duration    *int        `json:"duration,omitempty"`
	Status      string      `json:"status,omitempty"`
	Disposition string      `json:"disposition,omitempty"`
	Escalated   *bool       `json:"escalated,omitempty"`
	EscalatedTo string      `json:"escalated_to,omitempty"`
	Cost        json.Number `json:"cost,omitempty"`
	Tags        []string    `json:"tags,omitempty"`

	RecordingURL  string         `json:"recording_url,omitempty"`
	Transcript    string         `json:"transcript,omitempty"`
	TranscriptURL string         `json:"transcript_url,omitempty"`
	Intent        []string       `json:"intent,omitempty"`
	Analysis      map[string]any `json:"analysis,omitempty"`
}

var voiceEvents = map[string]lifecycle.EventType{
	"call_started":          lifecycle.EventStarted,
	"call_ended":            lifecycle.EventEnded,
	"call_analyzed":         lifecycle.EventAnalyzed,
	"call_recording_ready":  lifecycle.EventRecordingReady,
	"call_transcript_ready": lifecycle.EventTranscriptReady,
	"call_escalated":        lifecycle.EventEscalated,
}

// ParseVoiceEvent decodes one delivery and maps it onto the normalized
// lifecycle event. ok is false for unknown event names.
func ParseVoiceEvent(body []byte, now time.Time) (ev lifecycle.Event, ok bool, err error) {
	var env VoiceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return lifecycle.Event{}, false, fmt.Errorf("webhooks: decode voice body: %w", err)
	}

	typ, known := voiceEvents[env.Event]
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
		Provider:   calls.ProviderVoice,
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
		Analysis:      env.Analysis,

		Raw: raw,
	}, true, nil
}

// parseCostCents converts a decimal currency amount ("1.25" or 1.25) into
// minor units. A malformed value is a processing error, not a silent zero.
func parseCostCents(n json.Number) (*int64, error) {
	s := n.String()
	if s == "" {
		return nil, nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("webhooks: invalid cost %q", s)
	}
	cents := int64(math.Round(v * 100))
	return &cents, nil
}

// normalizeStatus maps provider spellings onto internal call statuses. An
// empty status is fine (the merge rule defaults); an unrecognized one is a
// processing error so a provider change does not silently corrupt records.
func normalizeStatus(s string) (calls.CallStatus, error) {
	if s == "" {
		return "", nil
	}
	norm := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	if norm == "cancelled" {
		norm = "canceled"
	}
	status := calls.CallStatus(norm)
	if !calls.ValidStatus(status) {
		return "", fmt.Errorf("webhooks: unknown call status %q", s)
	}
	return status, nil
}

func normalizeDirection(s string) calls.CallDirection {
	switch strings.ToLower(s) {
	case "outbound":
		return calls.DirectionOutbound
	case "inbound":
		return calls.DirectionInbound
	default:
		return ""
	}
}

// parseTimestamp accepts RFC3339 and unix-second forms; a missing or
// malformed timestamp falls back to the receive time.
func parseTimestamp(s string, now time.Time) time.Time {
	if s == "" {
		return now.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil && sec > 0 {
		return time.Unix(sec, 0).UTC()
	}
	return now.UTC()
}
