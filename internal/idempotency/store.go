// Package idempotency remembers webhook delivery IDs so a redelivered
// webhook is acknowledged without being processed twice.
package idempotency

import (
	"context"
	"time"
)

// Store records delivery keys.
type Store interface {
	// MarkProcessed records key for ttl and reports whether this is the
	// first time it has been seen within that period.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so a redelivery is processed again. Releasing an
	// unknown key is not an error.
	Release(ctx context.Context, key string) error
	Close() error
}

// Key builds the store key for a provider's delivery ID.
func Key(provider, deliveryID string) string {
	return provider + ":" + deliveryID
}
