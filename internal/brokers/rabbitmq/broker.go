// Package rabbitmq publishes webhook events to a durable RabbitMQ topic
// exchange. Routing keys are webhooks.<provider>.<type>, so consumers bind
// with patterns such as "webhooks.stripe.#".
package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"webhook-guard/internal/brokers"
	"webhook-guard/internal/common/errors"
)

// DefaultExchange is declared when Config.Exchange is empty.
const DefaultExchange = "webhooks"

// Config holds RabbitMQ connection settings.
type Config struct {
	URL      string `json:"-"`
	Exchange string `json:"exchange"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.ConfigError("RabbitMQ URL is required")
	}
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	return nil
}

// Channel is the part of *amqp.Channel the broker uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker publishes to one exchange over a single channel.
type Broker struct {
	config *Config
	conn   *amqp.Connection

	mu sync.Mutex
	ch Channel
}

var _ brokers.Broker = (*Broker)(nil)

// NewBroker dials RabbitMQ, opens a channel and declares the exchange.
func NewBroker(config *Config) (*Broker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, errors.ConnectionError("failed to connect to RabbitMQ", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.ConnectionError("failed to open RabbitMQ channel", err)
	}

	broker, err := NewBrokerWithChannel(config, ch)
	if err != nil {
		conn.Close()
		return nil, err
	}
	broker.conn = conn
	return broker, nil
}

// NewBrokerWithChannel creates a broker on an existing channel and declares
// the exchange.
func NewBrokerWithChannel(config *Config, ch Channel) (*Broker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, errors.ConnectionError(fmt.Sprintf("failed to declare exchange %s", config.Exchange), err)
	}
	return &Broker{config: config, ch: ch}, nil
}

func (b *Broker) Name() string {
	return brokers.NameRabbitMQ
}

// Publish sends a persistent JSON message. The channel serialises
// publishes, so ctx is only checked before sending.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := make(amqp.Table, len(message.Headers))
	for k, v := range message.Headers {
		headers[k] = v
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil {
		return errors.ConnectionError("RabbitMQ channel is closed", nil)
	}

	err := b.ch.Publish(b.config.Exchange, message.RoutingKey, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    message.ID,
		Timestamp:    message.Timestamp,
		Body:         message.Body,
	})
	if err != nil {
		return errors.ConnectionError("failed to publish to RabbitMQ", err)
	}
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.ch != nil {
		err = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil {
		if cerr := b.conn.Close(); err == nil {
			err = cerr
		}
		b.conn = nil
	}
	return err
}
