package events

import (
	"context"
	"sync"
)

// DefaultCapacity is the MemoryStore size used when none is given.
const DefaultCapacity = 500

// MemoryStore keeps the most recent events in a fixed-size ring.
type MemoryStore struct {
	mu     sync.RWMutex
	ring   []Event
	next   int
	filled bool
}

// NewMemoryStore creates a ring holding capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{ring: make([]Event, capacity)}
}

func (s *MemoryStore) Save(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.next] = event
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.filled = true
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.count()
	if limit > n {
		limit = n
	}

	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count(), nil
}

func (s *MemoryStore) count() int {
	if s.filled {
		return len(s.ring)
	}
	return s.next
}

func (s *MemoryStore) Close() error {
	return nil
}
