package app

import (
	"strconv"
	"time"

	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/ratelimit"
)

// rateLimitConfig converts RATE_LIMIT_* into a ratelimit.Config.
func (app *App) rateLimitConfig() ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	if limit, err := strconv.Atoi(app.Config.RateLimitDefault); err == nil && limit > 0 {
		cfg.Limit = limit
	}
	if window, err := time.ParseDuration(app.Config.RateLimitWindow); err == nil && window > 0 {
		cfg.Window = window
	}
	cfg.KeyPrefix = "ratelimit:webhooks:"
	return cfg
}

// initializeRateLimiter creates a distributed limiter when Redis is
// available and a local one otherwise.
func (app *App) initializeRateLimiter() error {
	if !app.Config.RateLimitEnabled {
		app.Logger.Info("Rate Limiting: Disabled")
		return nil
	}

	proxies, err := app.Config.TrustedProxyList()
	if err != nil {
		return err
	}
	app.TrustedProxies = proxies

	cfg := app.rateLimitConfig()
	fields := []logging.Field{
		logging.Int("limit", cfg.Limit),
		logging.String("window", cfg.Window.String()),
		logging.Int("trusted_proxies", len(proxies)),
	}

	if app.RedisClient != nil {
		limiter, err := ratelimit.NewDistributedLimiter(cfg, app.RedisClient, logging.GetGlobalLogger())
		if err != nil {
			return err
		}
		app.RateLimiter = limiter
		app.Logger.Info("Rate Limiting: Enabled (Redis)", fields...)
		return nil
	}

	limiter, err := ratelimit.NewLocalLimiter(cfg)
	if err != nil {
		return err
	}
	app.RateLimiter = limiter
	app.Logger.Info("Rate Limiting: Enabled (local)", fields...)
	return nil
}
