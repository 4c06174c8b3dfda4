// Package aws publishes webhook events to Amazon SNS topics and SQS queues.
package aws

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"webhook-guard/internal/brokers"
	"webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/secret"
)

// Config holds AWS settings. Without static keys the default credential
// chain is used (environment, shared config, instance role).
type Config struct {
	Region          string
	TopicARN        string
	QueueURL        string
	AccessKeyID     string
	SecretAccessKey secret.Secret
	SessionToken    secret.Secret
	// Endpoint overrides the service endpoint, for LocalStack
	Endpoint string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Region == "" {
		return errors.ConfigError("AWS region is required")
	}
	if (c.AccessKeyID == "") != !c.SecretAccessKey.IsSet() {
		return errors.ConfigError("AWS access key ID and secret access key must be set together")
	}
	return nil
}

// LoadConfig resolves an aws.Config from config.
func LoadConfig(ctx context.Context, config *Config) (aws.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey.Reveal(),
			config.SessionToken.Reveal(),
		)))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.ConnectionError("failed to load AWS config", err)
	}
	if config.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(config.Endpoint)
	}
	return cfg, nil
}

// SNSAPI is the part of *sns.Client the broker uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSBroker publishes to one SNS topic.
type SNSBroker struct {
	client   SNSAPI
	topicARN string
}

var _ brokers.Broker = (*SNSBroker)(nil)

// NewSNSBroker creates an SNS client for config.TopicARN.
func NewSNSBroker(ctx context.Context, config *Config) (*SNSBroker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TopicARN == "" {
		return nil, errors.ConfigError("SNS topic ARN is required")
	}

	cfg, err := LoadConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewSNSBrokerWithClient(sns.NewFromConfig(cfg), config.TopicARN), nil
}

// NewSNSBrokerWithClient creates a broker on an existing client.
func NewSNSBrokerWithClient(client SNSAPI, topicARN string) *SNSBroker {
	return &SNSBroker{client: client, topicARN: topicARN}
}

func (b *SNSBroker) Name() string {
	return brokers.NameSNS
}

func (b *SNSBroker) Publish(ctx context.Context, message *brokers.Message) error {
	attributes := make(map[string]snsTypes.MessageAttributeValue, len(message.Headers)+1)
	for key, value := range message.Headers {
		if value == "" {
			// SNS rejects empty string attributes
			continue
		}
		attributes[key] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}
	attributes["routing_key"] = snsTypes.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(message.RoutingKey),
	}

	_, err := b.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(b.topicARN),
		Message:           aws.String(string(message.Body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return errors.ConnectionError("failed to publish message to SNS", err)
	}
	return nil
}

func (b *SNSBroker) Close() error {
	return nil
}

// SQSAPI is the part of *sqs.Client the broker uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSBroker sends to one SQS queue.
type SQSBroker struct {
	client   SQSAPI
	queueURL string
}

var _ brokers.Broker = (*SQSBroker)(nil)

// NewSQSBroker creates an SQS client for config.QueueURL.
func NewSQSBroker(ctx context.Context, config *Config) (*SQSBroker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.QueueURL == "" {
		return nil, errors.ConfigError("SQS queue URL is required")
	}

	cfg, err := LoadConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewSQSBrokerWithClient(sqs.NewFromConfig(cfg), config.QueueURL), nil
}

// NewSQSBrokerWithClient creates a broker on an existing client.
func NewSQSBrokerWithClient(client SQSAPI, queueURL string) *SQSBroker {
	return &SQSBroker{client: client, queueURL: queueURL}
}

func (b *SQSBroker) Name() string {
	return brokers.NameSQS
}

func (b *SQSBroker) Publish(ctx context.Context, message *brokers.Message) error {
	attributes := make(map[string]types.MessageAttributeValue, len(message.Headers)+2)
	for key, value := range message.Headers {
		if value == "" {
			continue
		}
		attributes[key] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}
	attributes["routing_key"] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(message.RoutingKey),
	}
	attributes["timestamp"] = types.MessageAttributeValue{
		DataType:    aws.String("Number"),
		StringValue: aws.String(strconv.FormatInt(message.Timestamp.UnixNano(), 10)),
	}

	_, err := b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(b.queueURL),
		MessageBody:       aws.String(string(message.Body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return errors.ConnectionError("failed to send message to SQS", err)
	}
	return nil
}

func (b *SQSBroker) Close() error {
	return nil
}
