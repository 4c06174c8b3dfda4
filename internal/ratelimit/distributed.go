package ratelimit

import (
	"context"
	"fmt"
	"time"

	"webhook-guard/internal/common/logging"
)

// RedisInterface defines the minimal Redis interface needed for rate limiting
type RedisInterface interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// DistributedLimiter implements Redis-backed distributed rate limiting
type DistributedLimiter struct {
	config   Config
	redis    RedisInterface
	fallback *LocalLimiter
	logger   logging.Logger
}

// NewDistributedLimiter creates a limiter sharing its counts through Redis.
func NewDistributedLimiter(config Config, redisClient RedisInterface, logger logging.Logger) (*DistributedLimiter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required for distributed rate limiter")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	fallback, err := NewLocalLimiter(config)
	if err != nil {
		return nil, err
	}

	return &DistributedLimiter{
		config:   config,
		redis:    redisClient,
		fallback: fallback,
		logger:   logger.WithFields(logging.String("component", "ratelimit")),
	}, nil
}

// Allow counts the hit in Redis. When Redis fails the decision comes from
// the in-memory fallback so an outage neither blocks nor unthrottles senders.
func (rl *DistributedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := rl.redis.CheckRateLimit(ctx, rl.config.KeyPrefix+key, rl.config.Limit, rl.config.Window)
	if err != nil {
		rl.logger.Warn("Redis rate limit check failed, using local limiter", logging.Err(err))
		return rl.fallback.Allow(ctx, key)
	}
	return allowed, nil
}
