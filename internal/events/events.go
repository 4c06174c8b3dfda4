// Package events keeps a log of verified webhooks for the admin API and
// fans them out to subscribers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Provider names.
const (
	ProviderGitHub = "github"
	ProviderStripe = "stripe"
)

// DefaultListLimit and MaxListLimit bound List requests from the admin API.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Event is a webhook that passed signature verification.
type Event struct {
	ID         string          `json:"id"`
	Provider   string          `json:"provider"`
	Type       string          `json:"type"`
	DeliveryID string          `json:"delivery_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Store persists events. List returns the newest first.
type Store interface {
	Save(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// ClampLimit maps a requested list size onto [1, MaxListLimit], with
// DefaultListLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
