// Package config provides configuration management for webhook-guard.
// It loads configuration from environment variables (optionally seeded from a
// .env file by the caller) with defaults, validates it, and reports the
// non-fatal warnings operators should see at startup.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - ENVIRONMENT: Deployment environment (default: development)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional rotated log file
//   - TLS_CERT, TLS_KEY: Optional TLS certificate and key paths
//
// Secrets (unset means every request against that check is rejected):
//   - ADMIN_TOKEN: Admin bearer token
//   - GITHUB_WEBHOOK_SECRET: X-Hub-Signature-256 signing secret
//   - STRIPE_WEBHOOK_SECRET: Stripe-Signature signing secret
//   - ALLOW_UNSIGNED_WEBHOOKS: Accept webhooks whose secret is unset (default: false, refused in production)
//
// Webhook Handling:
//   - WEBHOOK_TOLERANCE: Maximum Stripe timestamp skew, 0s disables (default: 300s)
//   - MAX_BODY_BYTES: Maximum webhook body size (default: 1048576)
//   - IDEMPOTENCY_TTL: How long delivery IDs are remembered (default: 24h)
//   - IDEMPOTENCY_CLEANUP: Cron schedule for in-memory cleanup (default: @every 1h)
//   - DATABASE_PATH: SQLite event log path, empty keeps events in memory
//   - DATABASE_URL: PostgreSQL event log (postgres://...), exclusive with DATABASE_PATH
//
// Event Brokers (verified events are also published to each listed broker):
//   - EVENT_BROKERS: Comma separated list of rabbitmq, sns, sqs, pubsub, kafka
//   - RABBITMQ_URL, RABBITMQ_EXCHANGE (default: webhooks)
//   - AWS_REGION (default: us-east-1), AWS_SNS_TOPIC_ARN, AWS_SQS_QUEUE_URL, AWS_ENDPOINT
//   - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY: Optional static credentials
//   - GCP_PROJECT_ID, GCP_PUBSUB_TOPIC (default: webhook-events), GCP_CREDENTIALS_FILE
//   - KAFKA_BROKERS: Comma separated bootstrap servers; KAFKA_TOPIC (default: webhook-events)
//   - BROKER_TIMEOUT: Per publish timeout (default: 5s)
//   - BROKER_BREAKER_FAILURES: Consecutive failures that open a broker's circuit (default: 5)
//   - BROKER_BREAKER_TIMEOUT: How long an open circuit waits before retrying (default: 60s)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address, empty disables Redis
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable rate limiting on webhook routes (default: true)
//   - RATE_LIMIT_DEFAULT: Requests per window per client (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit time window (default: 60s)
//   - TRUSTED_PROXIES: Comma separated IPs or CIDRs whose X-Forwarded-For is believed (default: none)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"webhook-guard/internal/common/secret"
	"webhook-guard/internal/ratelimit"
)

// EnvProduction is the ENVIRONMENT value that forbids permissive switches.
const EnvProduction = "production"

// Config holds all configuration values for webhook-guard. Secrets are kept
// as secret.Secret so that logging the struct never prints them.
type Config struct {
	// Application settings
	Port        string
	Environment string
	LogLevel    string
	LogFile     string
	TLSCert     string
	TLSKey      string

	// Secrets
	AdminToken            secret.Secret
	GitHubWebhookSecret   secret.Secret
	StripeWebhookSecret   secret.Secret
	AllowUnsignedWebhooks bool

	// Webhook handling
	WebhookTolerance   string
	MaxBodyBytes       string
	IdempotencyTTL     string
	IdempotencyCleanup string
	DatabasePath       string
	DatabaseURL        secret.Secret

	// Event brokers
	EventBrokers          string
	RabbitMQURL           secret.Secret
	RabbitMQExchange      string
	AWSRegion             string
	AWSSNSTopicARN        string
	AWSSQSQueueURL        string
	AWSEndpoint           string
	AWSAccessKeyID        string
	AWSSecretAccessKey    secret.Secret
	GCPProjectID          string
	GCPPubSubTopic        string
	GCPCredentialsFile    string
	KafkaBrokers          string
	KafkaTopic            string
	BrokerTimeout         string
	BrokerBreakerFailures string
	BrokerBreakerTimeout  string

	// Redis configuration
	RedisAddress  string
	RedisPassword secret.Secret
	RedisDB       string
	RedisPoolSize string

	// Rate limiting configuration
	RateLimitEnabled bool
	RateLimitDefault string
	RateLimitWindow  string
	TrustedProxies   string
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all values are usable.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		TLSCert:     getEnv("TLS_CERT", ""),
		TLSKey:      getEnv("TLS_KEY", ""),

		AdminToken:            secret.New(os.Getenv("ADMIN_TOKEN")),
		GitHubWebhookSecret:   secret.New(os.Getenv("GITHUB_WEBHOOK_SECRET")),
		StripeWebhookSecret:   secret.New(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		AllowUnsignedWebhooks: getBoolEnv("ALLOW_UNSIGNED_WEBHOOKS", false),

		WebhookTolerance:   getEnv("WEBHOOK_TOLERANCE", "300s"),
		MaxBodyBytes:       getEnv("MAX_BODY_BYTES", "1048576"),
		IdempotencyTTL:     getEnv("IDEMPOTENCY_TTL", "24h"),
		IdempotencyCleanup: getEnv("IDEMPOTENCY_CLEANUP", "@every 1h"),
		DatabasePath:       getEnv("DATABASE_PATH", ""),
		DatabaseURL:        secret.New(os.Getenv("DATABASE_URL")),

		EventBrokers:          getEnv("EVENT_BROKERS", ""),
		RabbitMQURL:           secret.New(os.Getenv("RABBITMQ_URL")),
		RabbitMQExchange:      getEnv("RABBITMQ_EXCHANGE", "webhooks"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSSNSTopicARN:        getEnv("AWS_SNS_TOPIC_ARN", ""),
		AWSSQSQueueURL:        getEnv("AWS_SQS_QUEUE_URL", ""),
		AWSEndpoint:           getEnv("AWS_ENDPOINT", ""),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    secret.New(os.Getenv("AWS_SECRET_ACCESS_KEY")),
		GCPProjectID:          getEnv("GCP_PROJECT_ID", ""),
		GCPPubSubTopic:        getEnv("GCP_PUBSUB_TOPIC", "webhook-events"),
		GCPCredentialsFile:    getEnv("GCP_CREDENTIALS_FILE", ""),
		KafkaBrokers:          getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "webhook-events"),
		BrokerTimeout:         getEnv("BROKER_TIMEOUT", "5s"),
		BrokerBreakerFailures: getEnv("BROKER_BREAKER_FAILURES", "5"),
		BrokerBreakerTimeout:  getEnv("BROKER_BREAKER_TIMEOUT", "60s"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: secret.New(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "100"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "60s"),
		TrustedProxies:   getEnv("TRUSTED_PROXIES", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
// Anything strconv.ParseBool rejects falls back to the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks formats and cross-field rules. Missing secrets are not
// errors; they are reported by Warnings and enforced by rejecting requests.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.AllowUnsignedWebhooks && c.IsProduction() {
		return fmt.Errorf("ALLOW_UNSIGNED_WEBHOOKS cannot be enabled when ENVIRONMENT=production")
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}

	if d, err := time.ParseDuration(c.WebhookTolerance); err != nil || d < 0 {
		return fmt.Errorf("WEBHOOK_TOLERANCE must be a non-negative duration (e.g., '300s', '5m')")
	}

	if n, err := strconv.ParseInt(c.MaxBodyBytes, 10, 64); err != nil || n < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be a positive number")
	}

	if d, err := time.ParseDuration(c.IdempotencyTTL); err != nil || d <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration (e.g., '24h')")
	}

	if _, err := cron.ParseStandard(c.IdempotencyCleanup); err != nil {
		return fmt.Errorf("IDEMPOTENCY_CLEANUP must be a valid cron schedule: %v", err)
	}

	if c.DatabasePath != "" && c.DatabaseURL.IsSet() {
		return fmt.Errorf("DATABASE_PATH and DATABASE_URL cannot both be set")
	}

	if err := c.validateBrokers(); err != nil {
		return err
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.RateLimitEnabled {
		if limit, err := strconv.Atoi(c.RateLimitDefault); err != nil || limit < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if d, err := time.ParseDuration(c.RateLimitWindow); err != nil || d <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a valid duration (e.g., '60s', '1m')")
		}
		if _, err := c.TrustedProxyList(); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
	}

	return nil
}

// Warnings lists the non-fatal problems operators should see at startup,
// one per unset secret plus permissive switches.
func (c *Config) Warnings() []string {
	var warnings []string

	if !c.AdminToken.IsSet() {
		warnings = append(warnings,
			"ADMIN_TOKEN is not set; admin endpoints will reject all requests")
	}
	if !c.GitHubWebhookSecret.IsSet() {
		warnings = append(warnings, unsetWebhookWarning("GITHUB_WEBHOOK_SECRET", c.AllowUnsignedWebhooks))
	}
	if !c.StripeWebhookSecret.IsSet() {
		warnings = append(warnings, unsetWebhookWarning("STRIPE_WEBHOOK_SECRET", c.AllowUnsignedWebhooks))
	}

	return warnings
}

func unsetWebhookWarning(name string, allowUnsigned bool) string {
	if allowUnsigned {
		return name + " is not set; ALLOW_UNSIGNED_WEBHOOKS is on, so these webhooks are accepted without verification"
	}
	return name + " is not set; these webhooks will be rejected"
}

// Tolerance returns WEBHOOK_TOLERANCE parsed. Call after Validate.
func (c *Config) Tolerance() time.Duration {
	d, _ := time.ParseDuration(c.WebhookTolerance)
	return d
}

// BodyLimit returns MAX_BODY_BYTES parsed. Call after Validate.
func (c *Config) BodyLimit() int64 {
	n, _ := strconv.ParseInt(c.MaxBodyBytes, 10, 64)
	return n
}

// DeliveryTTL returns IDEMPOTENCY_TTL parsed. Call after Validate.
func (c *Config) DeliveryTTL() time.Duration {
	d, _ := time.ParseDuration(c.IdempotencyTTL)
	return d
}

// Broker names accepted in EVENT_BROKERS.
var knownBrokers = map[string]bool{"rabbitmq": true, "sns": true, "sqs": true, "pubsub": true, "kafka": true}

func (c *Config) validateBrokers() error {
	names := c.Brokers()
	if len(names) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !knownBrokers[name] {
			return fmt.Errorf("EVENT_BROKERS contains unknown broker %q (want rabbitmq, sns, sqs, pubsub or kafka)", name)
		}
		if seen[name] {
			return fmt.Errorf("EVENT_BROKERS lists %q twice", name)
		}
		seen[name] = true

		switch name {
		case "rabbitmq":
			if !c.RabbitMQURL.IsSet() {
				return fmt.Errorf("RABBITMQ_URL is required when EVENT_BROKERS includes rabbitmq")
			}
		case "sns":
			if c.AWSSNSTopicARN == "" {
				return fmt.Errorf("AWS_SNS_TOPIC_ARN is required when EVENT_BROKERS includes sns")
			}
		case "sqs":
			if c.AWSSQSQueueURL == "" {
				return fmt.Errorf("AWS_SQS_QUEUE_URL is required when EVENT_BROKERS includes sqs")
			}
		case "pubsub":
			if c.GCPProjectID == "" {
				return fmt.Errorf("GCP_PROJECT_ID is required when EVENT_BROKERS includes pubsub")
			}
		case "kafka":
			if len(c.KafkaBrokerList()) == 0 {
				return fmt.Errorf("KAFKA_BROKERS is required when EVENT_BROKERS includes kafka")
			}
		}
	}

	if (seen["sns"] || seen["sqs"]) && c.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION is required for sns and sqs")
	}
	if (c.AWSAccessKeyID == "") != !c.AWSSecretAccessKey.IsSet() {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	if d, err := time.ParseDuration(c.BrokerTimeout); err != nil || d <= 0 {
		return fmt.Errorf("BROKER_TIMEOUT must be a positive duration (e.g., '5s')")
	}
	if n, err := strconv.Atoi(c.BrokerBreakerFailures); err != nil || n < 1 {
		return fmt.Errorf("BROKER_BREAKER_FAILURES must be a positive number")
	}
	if d, err := time.ParseDuration(c.BrokerBreakerTimeout); err != nil || d <= 0 {
		return fmt.Errorf("BROKER_BREAKER_TIMEOUT must be a positive duration (e.g., '60s')")
	}
	return nil
}

// Brokers returns EVENT_BROKERS as lower-case names.
func (c *Config) Brokers() []string {
	return splitList(strings.ToLower(c.EventBrokers))
}

// KafkaBrokerList returns KAFKA_BROKERS split on commas.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

// PublishTimeout returns BROKER_TIMEOUT parsed. Call after Validate.
func (c *Config) PublishTimeout() time.Duration {
	d, _ := time.ParseDuration(c.BrokerTimeout)
	return d
}

// BreakerFailures returns BROKER_BREAKER_FAILURES parsed. Call after Validate.
func (c *Config) BreakerFailures() int {
	n, _ := strconv.Atoi(c.BrokerBreakerFailures)
	return n
}

// BreakerTimeout returns BROKER_BREAKER_TIMEOUT parsed. Call after Validate.
func (c *Config) BreakerTimeout() time.Duration {
	d, _ := time.ParseDuration(c.BrokerBreakerTimeout)
	return d
}

// TrustedProxyList parses TRUSTED_PROXIES.
func (c *Config) TrustedProxyList() (ratelimit.TrustedProxies, error) {
	return ratelimit.ParseTrustedProxies(splitList(c.TrustedProxies))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
