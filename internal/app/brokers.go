package app

import (
	"context"
	"fmt"
	"time"

	"webhook-guard/internal/brokers"
	"webhook-guard/internal/brokers/aws"
	"webhook-guard/internal/brokers/gcp"
	"webhook-guard/internal/brokers/kafka"
	"webhook-guard/internal/brokers/rabbitmq"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/config"
	"webhook-guard/internal/events"
)

const brokerConnectTimeout = 15 * time.Second

// brokerFactory builds the broker for one EVENT_BROKERS entry.
type brokerFactory func(ctx context.Context, cfg *config.Config) (brokers.Broker, error)

// brokerFactories is a variable so tests can replace the network backends.
var brokerFactories = map[string]brokerFactory{
	brokers.NameRabbitMQ: newRabbitMQBroker,
	brokers.NameSNS:      newSNSBroker,
	brokers.NameSQS:      newSQSBroker,
	brokers.NamePubSub:   newPubSubBroker,
	brokers.NameKafka:    newKafkaBroker,
}

// initializeBrokers connects every broker in EVENT_BROKERS and adds them to
// the event publisher. A broker that cannot be reached fails startup.
func (app *App) initializeBrokers() error {
	names := app.Config.Brokers()
	if len(names) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), brokerConnectTimeout)
	defer cancel()

	breaker := brokers.BreakerConfig{
		MaxFailures:           app.Config.BreakerFailures(),
		Timeout:               app.Config.BreakerTimeout(),
		MaxConcurrentRequests: 1,
		PublishTimeout:        app.Config.PublishTimeout(),
	}

	publishers := []events.Publisher{app.Publisher}
	for _, name := range names {
		factory, ok := brokerFactories[name]
		if !ok {
			return fmt.Errorf("unknown event broker %q", name)
		}

		broker, err := factory(ctx, app.Config)
		if err != nil {
			return fmt.Errorf("failed to initialize %s broker: %w", name, err)
		}

		publisher := brokers.NewPublisher(broker, breaker, logging.GetGlobalLogger())
		app.Brokers = append(app.Brokers, publisher)
		app.checks["broker:"+name] = publisher.Health
		publishers = append(publishers, publisher)
		app.Logger.Info("Event publishing: Broker connected", logging.Broker(name))
	}

	app.Publisher = events.NewMultiPublisher(publishers...)
	return nil
}

func newRabbitMQBroker(ctx context.Context, cfg *config.Config) (brokers.Broker, error) {
	broker, err := rabbitmq.NewBroker(&rabbitmq.Config{
		URL:      cfg.RabbitMQURL.Reveal(),
		Exchange: cfg.RabbitMQExchange,
	})
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func awsConfig(cfg *config.Config) *aws.Config {
	return &aws.Config{
		Region:          cfg.AWSRegion,
		TopicARN:        cfg.AWSSNSTopicARN,
		QueueURL:        cfg.AWSSQSQueueURL,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.AWSEndpoint,
	}
}

func newSNSBroker(ctx context.Context, cfg *config.Config) (brokers.Broker, error) {
	broker, err := aws.NewSNSBroker(ctx, awsConfig(cfg))
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func newSQSBroker(ctx context.Context, cfg *config.Config) (brokers.Broker, error) {
	broker, err := aws.NewSQSBroker(ctx, awsConfig(cfg))
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func newPubSubBroker(ctx context.Context, cfg *config.Config) (brokers.Broker, error) {
	broker, err := gcp.NewBroker(ctx, &gcp.Config{
		ProjectID:             cfg.GCPProjectID,
		TopicID:               cfg.GCPPubSubTopic,
		CredentialsFile:       cfg.GCPCredentialsFile,
		EnableMessageOrdering: true,
	})
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func newKafkaBroker(ctx context.Context, cfg *config.Config) (brokers.Broker, error) {
	broker, err := kafka.NewBroker(&kafka.Config{
		Brokers: cfg.KafkaBrokerList(),
		Topic:   cfg.KafkaTopic,
	})
	if err != nil {
		return nil, err
	}
	return broker, nil
}
