package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"webhook-guard/internal/auth"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
	_ "webhook-guard/internal/docs"
	"webhook-guard/internal/middleware"
	"webhook-guard/internal/ratelimit"
	"webhook-guard/internal/signature"
)

// chain wraps h so that mws run in the order given.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Routes builds the router. Every protected route lists its guards
// explicitly.
func (app *App) Routes() http.Handler {
	h := app.Handlers
	cfg := app.Config
	logger := logging.GetGlobalLogger()
	router := mux.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "not_found", "")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	// Health check and API docs (no auth required)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Admin endpoints
	requireAdmin := auth.RequireAdmin(app.Admin, logger)
	router.Handle("/api/admin/status", chain(http.HandlerFunc(h.AdminStatus), requireAdmin)).Methods(http.MethodGet)
	router.Handle("/api/admin/events", chain(http.HandlerFunc(h.ListEvents), requireAdmin)).Methods(http.MethodGet)

	// Webhook endpoints: rate limit, then read the body once, then verify it
	var webhookGuards []func(http.Handler) http.Handler
	if app.RateLimiter != nil {
		webhookGuards = append(webhookGuards,
			ratelimit.HTTPMiddleware(app.RateLimiter, app.rateLimitConfig(), ratelimit.ClientIPKey(app.TrustedProxies), logger))
	}
	webhookGuards = append(webhookGuards, middleware.PreserveBody(cfg.BodyLimit()))

	github := signature.NewMiddleware(signature.MiddlewareConfig{
		Provider:      "github",
		Header:        signature.HeaderGitHub,
		Secret:        cfg.GitHubWebhookSecret,
		Verifier:      signature.Verifier{Scheme: signature.SchemeSimple},
		FailureStatus: http.StatusForbidden,
		AllowUnsigned: cfg.AllowUnsignedWebhooks,
	}, logger)

	stripe := signature.NewMiddleware(signature.MiddlewareConfig{
		Provider:      "stripe",
		Header:        signature.HeaderStripe,
		Secret:        cfg.StripeWebhookSecret,
		Verifier:      signature.Verifier{Scheme: signature.SchemeTimestamped, Tolerance: cfg.Tolerance()},
		FailureStatus: http.StatusBadRequest,
		AllowUnsigned: cfg.AllowUnsignedWebhooks,
	}, logger)

	webhook := func(next http.HandlerFunc, verify func(http.Handler) http.Handler) http.Handler {
		guards := make([]func(http.Handler) http.Handler, 0, len(webhookGuards)+1)
		guards = append(guards, webhookGuards...)
		return chain(next, append(guards, verify)...)
	}
	router.Handle("/webhooks/github", webhook(h.GitHubWebhook, github.Wrap)).Methods(http.MethodPost)
	router.Handle("/webhooks/stripe", webhook(h.StripeWebhook, stripe.Wrap)).Methods(http.MethodPost)

	return router
}
