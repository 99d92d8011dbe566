package numbers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]PhoneNumber

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[string]PhoneNumber{},
		clock: time.Now,
	}
}

func (s *MemoryStore) SetClock(clock func() time.Time) { s.clock = clock }

func (s *MemoryStore) Create(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Number == n.Number && existing.Status == NumberStatusActive {
			return PhoneNumber{}, ErrAlreadyExists
		}
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = NumberStatusActive
	}
	n.CreatedAt = s.clock().UTC()
	s.byID[n.ID] = n
	return n, nil
}

func (s *MemoryStore) FindActiveByNumber(ctx context.Context, number string) (PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byID {
		if n.Number == number && n.Status == NumberStatusActive {
			return n, nil
		}
	}
	return PhoneNumber{}, ErrNotFound
}

func (s *MemoryStore) Release(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.Status = NumberStatusReleased
	s.byID[id] = n
	return nil
}
