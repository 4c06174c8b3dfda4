package events

import (
	"context"
	"errors"
)

// ChannelPrefix prefixes the pub/sub channel of each provider.
const ChannelPrefix = "webhooks."

// Publisher fans verified events out to other services.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisClient is the part of the Redis client the publisher needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RedisPublisher publishes events as JSON on "webhooks.<provider>".
type RedisPublisher struct {
	client RedisClient
}

// NewRedisPublisher creates a publisher on client.
func NewRedisPublisher(client RedisClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	return p.client.Publish(ctx, ChannelPrefix+event.Provider, event)
}

// NopPublisher drops events. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MultiPublisher publishes to every publisher in turn and joins their errors.
type MultiPublisher []Publisher

// NewMultiPublisher drops nil and NopPublisher entries. With nothing left it
// returns NopPublisher, and with one it returns that publisher.
func NewMultiPublisher(publishers ...Publisher) Publisher {
	var out MultiPublisher
	for _, p := range publishers {
		if p == nil {
			continue
		}
		if _, nop := p.(NopPublisher); nop {
			continue
		}
		out = append(out, p)
	}

	switch len(out) {
	case 0:
		return NopPublisher{}
	case 1:
		return out[0]
	default:
		return out
	}
}

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
