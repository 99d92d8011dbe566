package orgs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_Membership(t *testing.T) {
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return time.Unix(1700000000, 0).UTC() })
	ctx := context.Background()

	org, err := s.CreateOrg(ctx, Organization{Name: "Lakeside Dental"})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	if org.Status != OrgStatusActive {
		t.Fatalf("expected default active status, got %q", org.Status)
	}

	if _, err := s.AddMember(ctx, Membership{OrgID: org.ID, UserID: "u-1", Role: "admin"}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := s.AddMember(ctx, Membership{OrgID: org.ID, UserID: "u-1", Role: "member"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.AddMember(ctx, Membership{OrgID: "missing", UserID: "u-1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown org, got %v", err)
	}

	ok, err := s.IsMember(ctx, org.ID, "u-1")
	if err != nil || !ok {
		t.Fatalf("expected membership, got %v %v", ok, err)
	}
	ok, _ = s.IsMember(ctx, org.ID, "u-2")
	if ok {
		t.Fatalf("expected no membership for u-2")
	}
}

func TestMemoryStore_CreateOrgWithOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	org, err := s.CreateOrgWithOwner(ctx, Organization{Name: "Harbor Vet"}, "u-owner")
	if err != nil {
		t.Fatalf("create org with owner: %v", err)
	}
	ok, err := s.IsMember(ctx, org.ID, "u-owner")
	if err != nil || !ok {
		t.Fatalf("expected owner membership, got %v %v", ok, err)
	}

	if _, err := s.CreateOrgWithOwner(ctx, Organization{ID: org.ID, Name: "Harbor Vet"}, "u-owner"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate id, got %v", err)
	}
}

func TestMemoryStore_GetOrg(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetOrg(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	org, _ := s.CreateOrg(ctx, Organization{Name: "Northgate Clinic"})
	got, err := s.GetOrg(ctx, org.ID)
	if err != nil {
		t.Fatalf("get org: %v", err)
	}
	if got.Name != "Northgate Clinic" {
		t.Fatalf("expected name roundtrip, got %q", got.Name)
	}
}
