package calls

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development.
// It enforces the same uniqueness and window semantics as the Postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	byID  map[string]Call
	byExt map[string]string // provider|external_id -> id

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[string]Call{},
		byExt: map[string]string{},
		clock: time.Now,
	}
}

// SetClock overrides the timestamp source for deterministic tests.
func (s *MemoryStore) SetClock(clock func() time.Time) { s.clock = clock }

func extKey(provider Provider, externalID string) string {
	return string(provider) + "|" + externalID
}

func (s *MemoryStore) FindByExternal(ctx context.Context, provider Provider, externalID string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byExt[extKey(provider, externalID)]
	if !ok {
		return Call{}, ErrNotFound
	}
	return cloneCall(s.byID[id]), nil
}

func (s *MemoryStore) Create(ctx context.Context, c Call) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := extKey(c.Provider, c.ExternalID)
	if _, exists := s.byExt[key]; exists {
		return Call{}, ErrAlreadyExists
	}

	now := s.clock().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	s.byID[c.ID] = cloneCall(c)
	s.byExt[key] = c.ID
	return cloneCall(c), nil
}

func (s *MemoryStore) Update(ctx context.Context, c Call) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[c.ID]
	if !ok {
		return Call{}, ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.clock().UTC()

	s.byID[c.ID] = cloneCall(c)
	return cloneCall(c), nil
}

func (s *MemoryStore) ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, 0)
	for _, c := range s.byID {
		if c.OrgID != orgID {
			continue
		}
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, cloneCall(c))
	}
	return out, nil
}

// cloneCall deep-copies slices so callers cannot mutate stored state.
func cloneCall(c Call) Call {
	out := c
	if c.Intent != nil {
		out.Intent = append([]string(nil), c.Intent...)
	}
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Events != nil {
		out.Events = append([]EventRecord(nil), c.Events...)
	}
	if c.CostCents != nil {
		v := *c.CostCents
		out.CostCents = &v
	}
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	return out
}
