package app

import (
	"strconv"

	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/redis"
)

func (app *App) initializeRedis() error {
	if app.Config.RedisAddress == "" {
		app.Logger.Info("Redis: Not configured (deliveries and rate limits are per instance)")
		return nil
	}

	// Convert config values
	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	redisClient, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword.Reveal(),
		DB:       redisDB,
		PoolSize: redisPoolSize,
	})
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.checks["redis"] = redisClient.Health
	app.Logger.Info("Redis: Connected", logging.String("address", app.Config.RedisAddress))

	return nil
}
