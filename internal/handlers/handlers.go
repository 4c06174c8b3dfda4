// Package handlers implements the HTTP endpoints of webhook-guard.
//
// Webhook handlers run behind the signature middleware, so by the time they
// execute the body is authentic. They dedupe on delivery ID, record the event
// and publish it.
package handlers

import (
	"context"
	"net/http"
	"time"

	"webhook-guard/internal/auth"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
	"webhook-guard/internal/common/secret"
	"webhook-guard/internal/events"
	"webhook-guard/internal/idempotency"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options holds the handler dependencies.
type Options struct {
	Admin       *auth.AdminValidator
	Events      events.Store
	Publisher   events.Publisher
	Deliveries  idempotency.Store
	DeliveryTTL time.Duration

	// GitHubConfigured and StripeConfigured are reported by /health.
	GitHubConfigured bool
	StripeConfigured bool

	// Checks are run by /health, keyed by dependency name.
	Checks map[string]HealthCheck
}

type Handlers struct {
	opts   Options
	logger logging.Logger
	now    func() time.Time
}

// New creates the handlers. Nil stores get in-memory defaults.
func New(opts Options, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if opts.Events == nil {
		opts.Events = events.NewMemoryStore(events.DefaultCapacity)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Deliveries == nil {
		opts.Deliveries = idempotency.NewMemoryStore(logger)
	}
	if opts.DeliveryTTL <= 0 {
		opts.DeliveryTTL = 24 * time.Hour
	}
	if opts.Admin == nil {
		opts.Admin = auth.NewAdminValidator(secret.Secret{})
	}

	return &Handlers{
		opts:   opts,
		logger: logger.WithFields(logging.String("component", "handlers")),
		now:    time.Now,
	}
}

// writeJSON is the single place handler responses are encoded.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response.JSON(w, status, data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, kind, message string) {
	response.Error(w, status, kind, message)
}
