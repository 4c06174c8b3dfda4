package app

import (
	"context"
	"time"

	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/events"
	"webhook-guard/internal/idempotency"
)

const databaseConnectTimeout = 10 * time.Second

// initializeEvents picks PostgreSQL when DATABASE_URL is set, SQLite when
// DATABASE_PATH is set and a memory ring otherwise. Events are published
// through Redis when it is connected.
func (app *App) initializeEvents() error {
	switch {
	case app.Config.DatabaseURL.IsSet():
		ctx, cancel := context.WithTimeout(context.Background(), databaseConnectTimeout)
		defer cancel()

		store, err := events.NewPostgresStore(ctx, app.Config.DatabaseURL.Reveal())
		if err != nil {
			return err
		}
		app.Events = store
		app.checks["database"] = store.Health
		app.Logger.Info("Event log: PostgreSQL")
	case app.Config.DatabasePath != "":
		store, err := events.NewSQLiteStore(app.Config.DatabasePath)
		if err != nil {
			return err
		}
		app.Events = store
		app.checks["database"] = store.Health
		app.Logger.Info("Event log: SQLite", logging.String("path", app.Config.DatabasePath))
	default:
		app.Events = events.NewMemoryStore(events.DefaultCapacity)
		app.Logger.Info("Event log: In memory", logging.Int("capacity", events.DefaultCapacity))
	}

	if app.RedisClient != nil {
		app.Publisher = events.NewRedisPublisher(app.RedisClient)
		app.Logger.Info("Event publishing: Redis", logging.String("channel_prefix", events.ChannelPrefix))
	} else {
		app.Publisher = events.NopPublisher{}
	}
	return nil
}

func (app *App) initializeDeliveries() error {
	if app.RedisClient != nil {
		app.Deliveries = idempotency.NewRedisStore(app.RedisClient)
		app.Logger.Info("Delivery dedup: Redis", logging.String("ttl", app.Config.IdempotencyTTL))
		return nil
	}

	store := idempotency.NewMemoryStore(logging.GetGlobalLogger())
	if err := store.StartCleanup(app.Config.IdempotencyCleanup); err != nil {
		return err
	}
	app.Deliveries = store
	app.Logger.Info("Delivery dedup: In memory", logging.String("ttl", app.Config.IdempotencyTTL))
	return nil
}
