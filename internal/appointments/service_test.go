package appointments

import (
	"context"
	"testing"
	"time"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/events"
)

func seededCall(t *testing.T, store *calls.MemoryStore) calls.Call {
	t.Helper()
	c, err := store.Create(context.Background(), calls.Call{
		Provider:   calls.ProviderVoice,
		ExternalID: "ext-1",
		OrgID:      "org-1",
		FromNumber: "+15551234567",
		Status:     calls.CallStatusCompleted,
		StartedAt:  time.Unix(1700000000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed call: %v", err)
	}
	return c
}

func TestHandleBookingIntent_BooksAndBacklinks(t *testing.T) {
	callStore := calls.NewMemoryStore()
	c := seededCall(t, callStore)

	apptStore := NewMemoryStore()
	svc := NewService(apptStore, callStore, nil)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	err := svc.HandleBookingIntent(context.Background(), events.BookingIntent{
		CallID:       c.ID,
		OrgID:        "org-1",
		Provider:     string(calls.ProviderVoice),
		ExternalID:   "ext-1",
		Transcript:   "book for tomorrow at 3pm for a consultation",
		CustomerName: "Jane",
		FromNumber:   "+15551234567",
		DetectedAt:   now,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	appts, err := apptStore.ListByOrg(context.Background(), "org-1",
		now, now.AddDate(0, 0, 7))
	if err != nil || len(appts) != 1 {
		t.Fatalf("expected one appointment, got %d (%v)", len(appts), err)
	}
	a := appts[0]
	if a.Title != "Consultation - Jane" {
		t.Fatalf("expected title with purpose and name, got %q", a.Title)
	}
	if a.StartsAt.Hour() != 15 {
		t.Fatalf("expected 15:00 start, got %v", a.StartsAt)
	}
	if a.Source != SourceReceptionist || a.Status != "scheduled" {
		t.Fatalf("unexpected source/status: %q %q", a.Source, a.Status)
	}

	got, _ := callStore.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if got.Disposition != "booked" {
		t.Fatalf("expected call disposition booked, got %q", got.Disposition)
	}
	last := got.Events[len(got.Events)-1]
	if last.Type != "appointment.created" || last.Payload["appointmentId"] != a.ID {
		t.Fatalf("expected appointment.created backlink, got %+v", last)
	}
}

func TestHandleBookingIntent_NoDateIsNoOp(t *testing.T) {
	callStore := calls.NewMemoryStore()
	c := seededCall(t, callStore)

	apptStore := NewMemoryStore()
	svc := NewService(apptStore, callStore, nil)

	err := svc.HandleBookingIntent(context.Background(), events.BookingIntent{
		CallID:     c.ID,
		OrgID:      "org-1",
		Provider:   string(calls.ProviderVoice),
		ExternalID: "ext-1",
		Transcript: "thanks, I'll think about it",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	appts, _ := apptStore.ListByOrg(context.Background(), "org-1",
		time.Unix(0, 0).UTC(), time.Unix(1800000000, 0).UTC())
	if len(appts) != 0 {
		t.Fatalf("expected no appointments, got %d", len(appts))
	}
	got, _ := callStore.FindByExternal(context.Background(), calls.ProviderVoice, "ext-1")
	if got.Disposition == "booked" {
		t.Fatalf("call must not be marked booked without an appointment")
	}
}
