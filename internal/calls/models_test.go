package calls

import (
	"context"
	"testing"
	"time"
)

func TestValidStatus(t *testing.T) {
	statuses := []CallStatus{
		CallStatusRinging,
		CallStatusInProgress,
		CallStatusCompleted,
		CallStatusFailed,
		CallStatusNoAnswer,
		CallStatusBusy,
		CallStatusCanceled,
	}
	for _, s := range statuses {
		if !ValidStatus(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if ValidStatus("frobnicated") {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestLatestMetadata_LastWriteWinsWithoutLosingLog(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := Call{}
	c.AppendEvent("call_started", now, map[string]any{"agent_id": "a1", "shared": "first"})
	c.AppendEvent("call_ended", now.Add(time.Minute), map[string]any{"shared": "second", "duration": 42})

	meta := c.LatestMetadata()
	if meta["shared"] != "second" {
		t.Fatalf("expected later event to win, got %v", meta["shared"])
	}
	if meta["agent_id"] != "a1" {
		t.Fatalf("expected earlier keys preserved, got %v", meta["agent_id"])
	}
	// The log itself keeps both records; the flattened view is derived.
	if len(c.Events) != 2 {
		t.Fatalf("expected 2 event records, got %d", len(c.Events))
	}
	if c.Events[0].Payload["shared"] != "first" {
		t.Fatalf("expected first record untouched")
	}
}

func TestMemoryStore_UniquePerProviderAndExternalID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, Call{Provider: ProviderVoice, ExternalID: "ext-1", OrgID: "o1", Status: CallStatusInProgress})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, Call{Provider: ProviderVoice, ExternalID: "ext-1", OrgID: "o1", Status: CallStatusInProgress}); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// Same external id under the other provider is a different call.
	if _, err := s.Create(ctx, Call{Provider: ProviderAutomation, ExternalID: "ext-1", OrgID: "o1", Status: CallStatusInProgress}); err != nil {
		t.Fatalf("expected cross-provider create to succeed, got %v", err)
	}
}

func TestMemoryStore_ListByOrgWindowIsHalfOpen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ts := base
	s.SetClock(func() time.Time { return ts })

	for i, ext := range []string{"a", "b", "c"} {
		ts = base.Add(time.Duration(i) * time.Hour)
		if _, err := s.Create(ctx, Call{Provider: ProviderVoice, ExternalID: ext, OrgID: "o1", Status: CallStatusCompleted}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// [base, base+2h) excludes the row created exactly at base+2h.
	rows, err := s.ListByOrg(ctx, "o1", base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestMemoryStore_UpdateDoesNotLeakAliases(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, Call{Provider: ProviderVoice, ExternalID: "x", OrgID: "o1", Status: CallStatusInProgress, Tags: []string{"t1"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.Tags[0] = "mutated"

	got, err := s.FindByExternal(ctx, ProviderVoice, "x")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Tags[0] != "t1" {
		t.Fatalf("store state was mutated through a returned slice")
	}
}
