package numbers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_ResolveActiveNumber(t *testing.T) {
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return time.Unix(1700000000, 0).UTC() })
	ctx := context.Background()

	n, err := s.Create(ctx, PhoneNumber{OrgID: "org-1", Number: "+15551234567"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.FindActiveByNumber(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.OrgID != "org-1" {
		t.Fatalf("expected org-1, got %q", got.OrgID)
	}

	if _, err := s.Create(ctx, PhoneNumber{OrgID: "org-2", Number: "+15551234567"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected duplicate active number rejected, got %v", err)
	}

	if err := s.Release(ctx, n.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := s.FindActiveByNumber(ctx, "+15551234567"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected released number to stop resolving, got %v", err)
	}

	// A released number can be re-provisioned for another org.
	if _, err := s.Create(ctx, PhoneNumber{OrgID: "org-2", Number: "+15551234567"}); err != nil {
		t.Fatalf("re-provision: %v", err)
	}
}

func TestMemoryStore_ReleaseUnknown(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Release(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
