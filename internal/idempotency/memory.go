package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"webhook-guard/internal/common/logging"
)

// MemoryStore keeps delivery keys in a map. Expired keys are treated as
// absent on lookup and removed by Cleanup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time

	scheduler *cron.Cron
	logger    logging.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		logger:  logger.WithFields(logging.String("component", "idempotency")),
	}
}

func (s *MemoryStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.entries[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Cleanup drops expired keys and returns how many were removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, expires := range s.entries {
		if !now.Before(expires) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored keys, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartCleanup runs Cleanup on a cron schedule such as "@every 1h".
func (s *MemoryStore) StartCleanup(schedule string) error {
	if s.scheduler != nil {
		return fmt.Errorf("cleanup already started")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if removed := s.Cleanup(); removed > 0 {
			s.logger.Debug("Removed expired delivery keys", logging.Int("removed", removed))
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("Delivery key cleanup scheduled", logging.String("schedule", schedule))
	return nil
}

// Stop halts scheduled cleanup and waits for a running job to finish.
func (s *MemoryStore) Stop() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
	s.scheduler = nil
}

func (s *MemoryStore) Close() error {
	s.Stop()
	return nil
}
