// Package kafka produces webhook events to a Kafka topic, keyed by provider.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"webhook-guard/internal/brokers"
	"webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/secret"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "webhook-events"

const flushTimeoutMs = 5000

// Config holds producer settings.
type Config struct {
	Brokers          []string
	Topic            string
	ClientID         string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     secret.Secret
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.ConfigError("at least one Kafka broker is required")
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.ClientID == "" {
		c.ClientID = "webhook-guard"
	}
	if c.SecurityProtocol == "" {
		c.SecurityProtocol = "PLAINTEXT"
	}
	if strings.HasPrefix(c.SecurityProtocol, "SASL_") && (c.SASLUsername == "" || !c.SASLPassword.IsSet()) {
		return errors.ConfigError("SASL username and password are required for " + c.SecurityProtocol)
	}
	return nil
}

// ConfigMap builds the librdkafka producer configuration.
func (c *Config) ConfigMap() *kafka.ConfigMap {
	cm := kafka.ConfigMap{
		"bootstrap.servers": strings.Join(c.Brokers, ","),
		"client.id":         c.ClientID,
		"acks":              "all",
	}
	if c.SecurityProtocol != "PLAINTEXT" {
		cm["security.protocol"] = c.SecurityProtocol
	}
	if strings.HasPrefix(c.SecurityProtocol, "SASL_") {
		cm["sasl.mechanism"] = c.SASLMechanism
		cm["sasl.username"] = c.SASLUsername
		cm["sasl.password"] = c.SASLPassword.Reveal()
	}
	return &cm
}

// Producer is the part of *kafka.Producer the broker uses.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Broker produces to one topic.
type Broker struct {
	producer Producer
	topic    string
}

var _ brokers.Broker = (*Broker)(nil)

// NewBroker creates a producer for config.
func NewBroker(config *Config) (*Broker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(config.ConfigMap())
	if err != nil {
		return nil, errors.ConnectionError("failed to create Kafka producer", err)
	}
	return NewBrokerWithProducer(producer, config.Topic), nil
}

// NewBrokerWithProducer creates a broker on an existing producer.
func NewBrokerWithProducer(producer Producer, topic string) *Broker {
	return &Broker{producer: producer, topic: topic}
}

func (b *Broker) Name() string {
	return brokers.NameKafka
}

// Publish produces the message and waits for its delivery report or ctx.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	topic := b.topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(message.Key),
		Value:          message.Body,
		Timestamp:      message.Timestamp,
		Headers:        make([]kafka.Header, 0, len(message.Headers)+1),
	}
	for key, value := range message.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: "routing_key", Value: []byte(message.RoutingKey)})

	// buffered so a late report never blocks the producer
	deliveryChan := make(chan kafka.Event, 1)
	if err := b.producer.Produce(msg, deliveryChan); err != nil {
		return errors.ConnectionError("failed to produce message", err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return errors.ConnectionError("delivery failed", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes outstanding messages and closes the producer.
func (b *Broker) Close() error {
	remaining := b.producer.Flush(flushTimeoutMs)
	b.producer.Close()
	if remaining > 0 {
		return fmt.Errorf("%d Kafka messages were not delivered before close", remaining)
	}
	return nil
}
