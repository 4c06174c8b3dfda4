// Package gcp publishes webhook events to a Google Cloud Pub/Sub topic.
package gcp

import (
	"context"
	"strconv"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"webhook-guard/internal/brokers"
	"webhook-guard/internal/common/errors"
)

// DefaultTopic is used when Config.TopicID is empty.
const DefaultTopic = "webhook-events"

// Config holds Pub/Sub settings. Without credentials Application Default
// Credentials are used.
type Config struct {
	ProjectID       string
	TopicID         string
	CredentialsFile string
	// CreateTopic creates the topic when it does not exist
	CreateTopic bool
	// EnableMessageOrdering orders messages of one provider
	EnableMessageOrdering bool
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return errors.ConfigError("GCP project ID is required")
	}
	if c.TopicID == "" {
		c.TopicID = DefaultTopic
	}
	return nil
}

// Broker publishes to one topic.
type Broker struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	config *Config
}

var _ brokers.Broker = (*Broker)(nil)

// NewBroker creates a Pub/Sub client and resolves the topic. opts are passed
// to the client after the credentials option, which lets tests point it at
// an emulator.
func NewBroker(ctx context.Context, config *Config, opts ...option.ClientOption) (*Broker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if config.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := pubsub.NewClient(ctx, config.ProjectID, clientOpts...)
	if err != nil {
		return nil, errors.ConnectionError("failed to create Pub/Sub client", err)
	}

	topic := client.Topic(config.TopicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, errors.ConnectionError("failed to check Pub/Sub topic", err)
	}
	if !exists {
		if !config.CreateTopic {
			client.Close()
			return nil, errors.ConfigError("Pub/Sub topic " + config.TopicID + " does not exist")
		}
		if topic, err = client.CreateTopic(ctx, config.TopicID); err != nil {
			client.Close()
			return nil, errors.ConnectionError("failed to create Pub/Sub topic", err)
		}
	}
	topic.EnableMessageOrdering = config.EnableMessageOrdering

	return &Broker{client: client, topic: topic, config: config}, nil
}

func (b *Broker) Name() string {
	return brokers.NamePubSub
}

// Publish waits for the server to acknowledge the message.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	attributes := make(map[string]string, len(message.Headers)+2)
	for key, value := range message.Headers {
		attributes[key] = value
	}
	attributes["routing_key"] = message.RoutingKey
	attributes["timestamp"] = strconv.FormatInt(message.Timestamp.UnixNano(), 10)

	msg := &pubsub.Message{
		Data:       message.Body,
		Attributes: attributes,
	}
	if b.config.EnableMessageOrdering {
		msg.OrderingKey = message.Key
	}

	if _, err := b.topic.Publish(ctx, msg).Get(ctx); err != nil {
		if b.config.EnableMessageOrdering {
			// ordered publishing halts for the key after a failure
			b.topic.ResumePublish(message.Key)
		}
		return errors.ConnectionError("failed to publish to Pub/Sub", err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (b *Broker) Close() error {
	b.topic.Stop()
	return b.client.Close()
}
