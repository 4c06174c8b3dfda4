// Package brokers fans verified webhook events out to message brokers.
//
// Each backend lives in its own subpackage and implements Broker. The app
// wraps every Broker in a Publisher, which adds a circuit breaker and a
// per-publish timeout and satisfies events.Publisher.
package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"webhook-guard/internal/events"
)

// Broker names accepted in EVENT_BROKERS.
const (
	NameRabbitMQ = "rabbitmq"
	NameSNS      = "sns"
	NameSQS      = "sqs"
	NamePubSub   = "pubsub"
	NameKafka    = "kafka"
)

// Broker delivers one message to a backend.
type Broker interface {
	Name() string
	Publish(ctx context.Context, message *Message) error
	Close() error
}

// Message is the broker-neutral envelope for an event.
type Message struct {
	ID string
	// Key groups deliveries of one provider for partitioning and ordering.
	Key string
	// RoutingKey is webhooks.<provider>.<type>
	RoutingKey string
	Headers    map[string]string
	Body       []byte
	Timestamp  time.Time
}

// Message header names.
const (
	HeaderEventID    = "event_id"
	HeaderProvider   = "provider"
	HeaderEventType  = "event_type"
	HeaderDeliveryID = "delivery_id"
)

// NewMessage encodes event as JSON with its identifiers copied into headers.
func NewMessage(event events.Event) (*Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	eventType := event.Type
	if eventType == "" {
		eventType = "unknown"
	}

	return &Message{
		ID:         event.ID,
		Key:        event.Provider,
		RoutingKey: events.ChannelPrefix + event.Provider + "." + eventType,
		Headers: map[string]string{
			HeaderEventID:    event.ID,
			HeaderProvider:   event.Provider,
			HeaderEventType:  event.Type,
			HeaderDeliveryID: event.DeliveryID,
		},
		Body:      body,
		Timestamp: event.ReceivedAt,
	}, nil
}
