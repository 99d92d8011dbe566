package orgs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]Organization
	members map[string]Membership // org_id|user_id

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]Organization{},
		members: map[string]Membership{},
		clock:   time.Now,
	}
}

func (s *MemoryStore) SetClock(clock func() time.Time) { s.clock = clock }

func memberKey(orgID, userID string) string { return orgID + "|" + userID }

func (s *MemoryStore) CreateOrg(ctx context.Context, o Organization) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, exists := s.byID[o.ID]; exists {
		return Organization{}, ErrAlreadyExists
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	o.CreatedAt = s.clock().UTC()
	s.byID[o.ID] = o
	return o, nil
}

func (s *MemoryStore) CreateOrgWithOwner(ctx context.Context, o Organization, ownerUserID string) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, exists := s.byID[o.ID]; exists {
		return Organization{}, ErrAlreadyExists
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	now := s.clock().UTC()
	o.CreatedAt = now
	s.byID[o.ID] = o
	s.members[memberKey(o.ID, ownerUserID)] = Membership{
		OrgID:     o.ID,
		UserID:    ownerUserID,
		Role:      "owner",
		CreatedAt: now,
	}
	return o, nil
}

func (s *MemoryStore) GetOrg(ctx context.Context, id string) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return o, nil
}

func (s *MemoryStore) AddMember(ctx context.Context, m Membership) (Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[m.OrgID]; !ok {
		return Membership{}, ErrNotFound
	}
	key := memberKey(m.OrgID, m.UserID)
	if _, exists := s.members[key]; exists {
		return Membership{}, ErrAlreadyExists
	}
	m.CreatedAt = s.clock().UTC()
	s.members[key] = m
	return m, nil
}

func (s *MemoryStore) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[memberKey(orgID, userID)]
	return ok, nil
}
