package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter implements per-key rate limiting using golang.org/x/time/rate.
// Each key gets a bucket of Limit tokens refilled evenly over Window.
type LocalLimiter struct {
	mu       sync.Mutex
	config   Config
	limiters map[string]*limiterEntry

	lastCleanup time.Time
	now         func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLocalLimiter creates an in-memory limiter.
func NewLocalLimiter(config Config) (*LocalLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &LocalLimiter{
		config:      config,
		limiters:    make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}, nil
}

// Allow never returns an error.
func (rl *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	return rl.limiterFor(key, now).AllowN(now, 1), nil
}

// Keys reports how many keys are tracked.
func (rl *LocalLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// limiterFor gets or creates the rate limiter for key
func (rl *LocalLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) > rl.config.IdleTimeout {
		rl.cleanup(now)
	}

	entry, exists := rl.limiters[key]
	if !exists {
		every := rl.config.Window / time.Duration(rl.config.Limit)
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), rl.config.Limit)}
		rl.limiters[key] = entry

		if len(rl.limiters) > rl.config.MaxKeys {
			rl.cleanup(now)
		}
	}
	entry.lastUsed = now

	return entry.limiter
}

// cleanup removes limiters that haven't been used recently
func (rl *LocalLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-rl.config.IdleTimeout)

	for key, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}

	rl.lastCleanup = now
}
