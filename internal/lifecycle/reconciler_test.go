package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/events"
)

type capturedBookings struct {
	mu      sync.Mutex
	intents []events.BookingIntent
}

func (c *capturedBookings) PublishBookingIntent(ctx context.Context, in events.BookingIntent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, in)
}

func (c *capturedBookings) all() []events.BookingIntent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.BookingIntent(nil), c.intents...)
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func endedEvent(ts time.Time) Event {
	return Event{
		Provider:        calls.ProviderVoice,
		ExternalID:      "ext-1",
		Type:            EventEnded,
		Timestamp:       ts,
		DurationSeconds: intPtr(95),
		Disposition:     "answered",
		CostCents:       int64Ptr(123),
		Tags:            []string{"after-hours"},
		Raw:             map[string]any{"event": "call_ended", "duration": 95},
	}
}

func TestApply_StartedCreatesCall(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	err := r.Apply(context.Background(), Event{
		Provider:   calls.ProviderAutomation,
		ExternalID: "ext-1",
		Type:       EventStarted,
		Timestamp:  ts,
		OrgID:      "org-1",
		FromNumber: "+15551234567",
		ToNumber:   "+15557654321",
		Direction:  calls.DirectionInbound,
		Raw:        map[string]any{"event": "call.started"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	c, err := store.FindByExternal(context.Background(), calls.ProviderAutomation, "ext-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.Status != calls.CallStatusInProgress {
		t.Fatalf("expected in_progress, got %q", c.Status)
	}
	if !c.StartedAt.Equal(ts) {
		t.Fatalf("expected started_at %v, got %v", ts, c.StartedAt)
	}
	if c.OrgID != "org-1" {
		t.Fatalf("expected org context, got %q", c.OrgID)
	}
	if len(c.Events) != 1 || c.Events[0].Type != "started" {
		t.Fatalf("expected one started record, got %+v", c.Events)
	}
}

func TestApply_EndedTwiceIsIdempotentOnTerminalFields(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	if err := r.Apply(context.Background(), endedEvent(ts)); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := r.Apply(context.Background(), endedEvent(ts)); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	c, err := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.Status != calls.CallStatusCompleted {
		t.Fatalf("expected completed, got %q", c.Status)
	}
	if c.DurationSeconds != 95 {
		t.Fatalf("expected duration 95, got %d", c.DurationSeconds)
	}
	if c.CostCents == nil || *c.CostCents != 123 {
		t.Fatalf("expected cost 123, got %v", c.CostCents)
	}
	// Without a deduper both deliveries land in the log; terminal fields
	// converge regardless.
	if len(c.Events) != 2 {
		t.Fatalf("expected 2 log records, got %d", len(c.Events))
	}
}

func TestApply_DeduperDropsRedelivery(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, NewMemoryDeduper(), nil)
	ts := time.Unix(1700000000, 0).UTC()

	if err := r.Apply(context.Background(), endedEvent(ts)); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := r.Apply(context.Background(), endedEvent(ts)); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	c, _ := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if len(c.Events) != 1 {
		t.Fatalf("expected dedup to keep a single log record, got %d", len(c.Events))
	}
}

func TestApply_OrderToleranceRecordingBeforeStart(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	recording := Event{
		Provider:     calls.ProviderVoice,
		ExternalID:   "ext-1",
		Type:         EventRecordingReady,
		Timestamp:    ts.Add(2 * time.Minute),
		RecordingURL: "https://cdn.example.com/rec.mp3",
		Raw:          map[string]any{"event": "call_recording_ready"},
	}
	started := Event{
		Provider:   calls.ProviderVoice,
		ExternalID: "ext-1",
		Type:       EventStarted,
		Timestamp:  ts,
		Raw:        map[string]any{"event": "call_started"},
	}

	for name, order := range map[string][]Event{
		"recording_first": {recording, started},
		"started_first":   {started, recording},
	} {
		store := calls.NewMemoryStore()
		r := NewReconciler(store, nil, nil)
		for _, ev := range order {
			if err := r.Apply(context.Background(), ev); err != nil {
				t.Fatalf("%s: apply %s: %v", name, ev.Type, err)
			}
		}
		c, err := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
		if err != nil {
			t.Fatalf("%s: find: %v", name, err)
		}
		if c.Status != calls.CallStatusInProgress {
			t.Fatalf("%s: expected in_progress, got %q", name, c.Status)
		}
		if c.RecordingURL != "https://cdn.example.com/rec.mp3" {
			t.Fatalf("%s: expected recording url, got %q", name, c.RecordingURL)
		}
	}
}

func TestApply_EndedPreservesEarlierFacts(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	evs := []Event{
		{Provider: calls.ProviderVoice, ExternalID: "e", Type: EventStarted, Timestamp: ts, Raw: map[string]any{"agent_id": "a1"}},
		{Provider: calls.ProviderVoice, ExternalID: "e", Type: EventRecordingReady, Timestamp: ts.Add(time.Minute), RecordingURL: "https://r/1"},
		endedEventFor("e", ts.Add(2*time.Minute)),
	}
	for _, ev := range evs {
		if err := r.Apply(context.Background(), ev); err != nil {
			t.Fatalf("apply %s: %v", ev.Type, err)
		}
	}

	c, _ := store.FindByExternal(context.Background(), calls.ProviderVoice, "e")
	if c.RecordingURL != "https://r/1" {
		t.Fatalf("end event destroyed recording url")
	}
	if c.Status != calls.CallStatusCompleted || c.EndedAt == nil {
		t.Fatalf("expected completed with ended_at, got %q %v", c.Status, c.EndedAt)
	}
	meta := c.LatestMetadata()
	if meta["agent_id"] != "a1" {
		t.Fatalf("expected start payload preserved in log, got %v", meta)
	}
}

func endedEventFor(ext string, ts time.Time) Event {
	ev := endedEvent(ts)
	ev.ExternalID = ext
	return ev
}

func TestApply_EndedWithProviderStatus(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	ev := endedEvent(ts)
	ev.Status = calls.CallStatusNoAnswer
	ev.DurationSeconds = nil
	if err := r.Apply(context.Background(), ev); err != nil {
		t.Fatalf("apply: %v", err)
	}

	c, _ := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if c.Status != calls.CallStatusNoAnswer {
		t.Fatalf("expected no_answer, got %q", c.Status)
	}
	if c.DurationSeconds != 0 {
		t.Fatalf("expected duration default 0, got %d", c.DurationSeconds)
	}
}

func TestApply_RejectsUnknownEndStatus(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)

	ev := endedEvent(time.Unix(1700000000, 0).UTC())
	ev.Status = "exploded"
	if err := r.Apply(context.Background(), ev); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestApply_EscalatedSetsFlagAndTarget(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	err := r.Apply(context.Background(), Event{
		Provider:    calls.ProviderAutomation,
		ExternalID:  "ext-2",
		Type:        EventEscalated,
		Timestamp:   ts,
		EscalatedTo: "+15550001111",
		Raw:         map[string]any{"escalated": true, "escalationReason": "caller asked for a human"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	c, _ := store.FindByExternal(context.Background(), calls.ProviderAutomation, "ext-2")
	if !c.Escalated || c.EscalatedTo != "+15550001111" {
		t.Fatalf("expected escalation recorded, got %+v", c)
	}
}

func TestApply_AnalyzedPublishesBookingIntent(t *testing.T) {
	store := calls.NewMemoryStore()
	bus := &capturedBookings{}
	r := NewReconciler(store, nil, bus)
	ts := time.Unix(1700000000, 0).UTC()

	err := r.Apply(context.Background(), Event{
		Provider:    calls.ProviderVoice,
		ExternalID:  "ext-3",
		Type:        EventAnalyzed,
		Timestamp:   ts,
		Disposition: "booked",
		Intent:      []string{"book"},
		Transcript:  "book for tomorrow at 3pm for a consultation",
		Analysis:    map[string]any{"customer_name": "Dana Whitfield"},
		Raw:         map[string]any{"event": "call_analyzed"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := bus.all()
	if len(got) != 1 {
		t.Fatalf("expected one booking intent, got %d", len(got))
	}
	if got[0].CustomerName != "Dana Whitfield" {
		t.Fatalf("expected customer name, got %q", got[0].CustomerName)
	}
	if got[0].Transcript == "" || got[0].ExternalID != "ext-3" {
		t.Fatalf("unexpected intent payload: %+v", got[0])
	}
}

func TestApply_AnalyzedWithoutTranscriptDoesNotPublish(t *testing.T) {
	store := calls.NewMemoryStore()
	bus := &capturedBookings{}
	r := NewReconciler(store, nil, bus)

	err := r.Apply(context.Background(), Event{
		Provider:    calls.ProviderVoice,
		ExternalID:  "ext-4",
		Type:        EventAnalyzed,
		Timestamp:   time.Unix(1700000000, 0).UTC(),
		Disposition: "booked",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(bus.all()) != 0 {
		t.Fatalf("expected no booking intent without transcript")
	}
}

func TestApply_ConcurrentEventsLoseNothing(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	var wg sync.WaitGroup
	evs := []Event{
		endedEvent(ts.Add(90 * time.Second)),
		{Provider: calls.ProviderVoice, ExternalID: "ext-1", Type: EventRecordingReady, Timestamp: ts.Add(time.Minute), RecordingURL: "https://r/1"},
		{Provider: calls.ProviderVoice, ExternalID: "ext-1", Type: EventTranscriptReady, Timestamp: ts.Add(time.Minute), Transcript: "hello", Intent: []string{"info"}},
	}
	for _, ev := range evs {
		wg.Add(1)
		go func(ev Event) {
			defer wg.Done()
			if err := r.Apply(context.Background(), ev); err != nil {
				t.Errorf("apply %s: %v", ev.Type, err)
			}
		}(ev)
	}
	wg.Wait()

	c, err := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.RecordingURL != "https://r/1" {
		t.Fatalf("lost recording url under concurrency")
	}
	if c.Transcript != "hello" {
		t.Fatalf("lost transcript under concurrency")
	}
	if c.DurationSeconds != 95 {
		t.Fatalf("lost end event under concurrency")
	}
	if len(c.Events) != 3 {
		t.Fatalf("expected 3 log records, got %d", len(c.Events))
	}
}

func TestApply_EscalatedOnEndedEventDefaultsFalse(t *testing.T) {
	store := calls.NewMemoryStore()
	r := NewReconciler(store, nil, nil)
	ts := time.Unix(1700000000, 0).UTC()

	ev := endedEvent(ts)
	ev.Escalated = nil
	if err := r.Apply(context.Background(), ev); err != nil {
		t.Fatalf("apply: %v", err)
	}
	c, _ := store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if c.Escalated {
		t.Fatalf("expected escalated default false")
	}

	ev2 := endedEvent(ts.Add(time.Second))
	ev2.Escalated = boolPtr(true)
	ev2.EscalatedTo = "+15550002222"
	if err := r.Apply(context.Background(), ev2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	c, _ = store.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if !c.Escalated || c.EscalatedTo != "+15550002222" {
		t.Fatalf("expected escalation from second end event")
	}
}
