// Package ratelimit throttles webhook senders per client key.
//
// LocalLimiter keeps a golang.org/x/time/rate token bucket per key in
// memory. DistributedLimiter counts hits in a Redis sliding window so that
// several instances share one budget, and falls back to a LocalLimiter when
// Redis is unreachable.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config represents rate limiter configuration
type Config struct {
	// Limit requests are allowed per Window per key.
	Limit  int           `json:"limit"`
	Window time.Duration `json:"window"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `json:"key_prefix,omitempty"`

	// Cleanup settings for local limiters
	MaxKeys     int           `json:"max_keys,omitempty"`
	IdleTimeout time.Duration `json:"idle_timeout,omitempty"`
}

// DefaultConfig matches the RATE_LIMIT_* defaults.
func DefaultConfig() Config {
	return Config{
		Limit:       100,
		Window:      time.Minute,
		KeyPrefix:   "ratelimit:",
		MaxKeys:     10000,
		IdleTimeout: 10 * time.Minute,
	}
}

// Validate fills optional fields and rejects unusable values.
func (c *Config) Validate() error {
	if c.Limit < 1 {
		return fmt.Errorf("rate limit must be positive, got %d", c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Window)
	}

	defaults := DefaultConfig()
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaults.KeyPrefix
	}
	if c.MaxKeys <= 0 {
		c.MaxKeys = defaults.MaxKeys
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	return nil
}
