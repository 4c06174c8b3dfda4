package app

import (
	"context"
	"errors"
	"sync"

	"webhook-guard/internal/auth"
	"webhook-guard/internal/brokers"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/config"
	"webhook-guard/internal/events"
	"webhook-guard/internal/handlers"
	"webhook-guard/internal/idempotency"
	"webhook-guard/internal/ratelimit"
	"webhook-guard/internal/redis"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Logger      logging.Logger
	Admin       *auth.AdminValidator
	RedisClient *redis.Client
	Events      events.Store
	Publisher   events.Publisher
	Brokers     []*brokers.Publisher
	Deliveries  idempotency.Store
	RateLimiter ratelimit.Limiter
	Handlers    *handlers.Handlers

	// TrustedProxies may set the client address the rate limiter keys on.
	TrustedProxies ratelimit.TrustedProxies

	checks      map[string]handlers.HealthCheck
	cleanupOnce sync.Once
}

// New creates a new application instance with all dependencies. cfg must
// already be validated.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
		Admin:  auth.NewAdminValidator(cfg.AdminToken),
		checks: make(map[string]handlers.HealthCheck),
	}

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, just log the error
		app.Logger.Warn("Redis initialization failed, continuing without Redis", logging.Err(err))
	}

	if err := app.initializeEvents(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeBrokers(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeDeliveries(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeRateLimiter(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Handlers = handlers.New(handlers.Options{
		Admin:            app.Admin,
		Events:           app.Events,
		Publisher:        app.Publisher,
		Deliveries:       app.Deliveries,
		DeliveryTTL:      cfg.DeliveryTTL(),
		GitHubConfigured: cfg.GitHubWebhookSecret.IsSet(),
		StripeConfigured: cfg.StripeWebhookSecret.IsSet(),
		Checks:           app.checks,
	}, logging.GetGlobalLogger())

	return app, nil
}

// Shutdown stops background work. The HTTP server is shut down by the caller.
func (app *App) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		app.Cleanup()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cleanup releases all resources. Calls after the first do nothing.
func (app *App) Cleanup() {
	app.cleanupOnce.Do(app.cleanup)
}

func (app *App) cleanup() {
	var errs []error
	if app.Deliveries != nil {
		errs = append(errs, app.Deliveries.Close())
	}
	if app.Events != nil {
		errs = append(errs, app.Events.Close())
	}
	for _, broker := range app.Brokers {
		errs = append(errs, broker.Close())
	}
	if app.RedisClient != nil {
		errs = append(errs, app.RedisClient.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.Logger.Warn("Error releasing resources", logging.Err(err))
	}
}
