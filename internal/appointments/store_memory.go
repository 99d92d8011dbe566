package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]Appointment

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[string]Appointment{},
		clock: time.Now,
	}
}

func (s *MemoryStore) SetClock(clock func() time.Time) { s.clock = clock }

func (s *MemoryStore) Create(ctx context.Context, a Appointment) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.clock().UTC()
	s.byID[a.ID] = a
	return a, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Appointment, 0)
	for _, a := range s.byID {
		if a.OrgID != orgID {
			continue
		}
		if a.StartsAt.Before(from) || !a.StartsAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
