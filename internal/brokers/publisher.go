package brokers

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/events"
)

// BreakerConfig holds the circuit breaker settings of a Publisher.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures int
	// Timeout is how long the breaker stays open before letting a trial request through
	Timeout time.Duration
	// MaxConcurrentRequests is the number of trial requests allowed while half-open
	MaxConcurrentRequests int
	// PublishTimeout bounds a single Publish call
	PublishTimeout time.Duration
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:           5,
		Timeout:               60 * time.Second,
		MaxConcurrentRequests: 1,
		PublishTimeout:        5 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c BreakerConfig) Validate() error {
	if c.MaxFailures <= 0 {
		return fmt.Errorf("MaxFailures must be positive, got %d", c.MaxFailures)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("Timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("MaxConcurrentRequests must be positive, got %d", c.MaxConcurrentRequests)
	}
	if c.PublishTimeout <= 0 {
		return fmt.Errorf("PublishTimeout must be positive, got %v", c.PublishTimeout)
	}
	return nil
}

// Publisher adapts a Broker to events.Publisher behind a circuit breaker,
// so an unreachable broker costs one fast error per webhook instead of a
// timeout.
type Publisher struct {
	broker  Broker
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  logging.Logger
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher wraps broker. An invalid config falls back to the defaults.
func NewPublisher(broker Broker, config BreakerConfig, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(
		logging.String("component", "broker"),
		logging.Broker(broker.Name()),
	)

	if err := config.Validate(); err != nil {
		logger.Warn("Invalid circuit breaker config, using defaults", logging.Err(err))
		config = DefaultBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        broker.Name(),
		MaxRequests: uint32(config.MaxConcurrentRequests),
		Interval:    time.Minute,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.MaxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// encoding failures say nothing about the broker
			return err == nil || errors.IsType(err, errors.ErrTypeValidation)
		},
	}

	return &Publisher{
		broker:  broker,
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: config.PublishTimeout,
		logger:  logger,
	}
}

// Name returns the broker name.
func (p *Publisher) Name() string {
	return p.broker.Name()
}

// Publish sends event to the broker.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		message, err := NewMessage(event)
		if err != nil {
			return nil, errors.ValidationError(err.Error())
		}

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return nil, p.broker.Publish(ctx, message)
	})

	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.ConnectionError(fmt.Sprintf("circuit breaker '%s' is open", p.broker.Name()), err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", p.broker.Name(), err)
	}

	p.logger.WithContext(ctx).Debug("Event published", logging.EventID(event.ID))
	return nil
}

// Health reports an error while the breaker is open.
func (p *Publisher) Health(ctx context.Context) error {
	if state := p.breaker.State(); state == gobreaker.StateOpen {
		return errors.ConnectionError(fmt.Sprintf("circuit breaker '%s' is %s", p.broker.Name(), state), nil)
	}
	return nil
}

// State returns the breaker state: closed, open or half-open.
func (p *Publisher) State() string {
	return p.breaker.State().String()
}

// Close closes the broker.
func (p *Publisher) Close() error {
	return p.broker.Close()
}
