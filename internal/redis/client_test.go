package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&Config{Address: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Run("successful connection", func(t *testing.T) {
		client, err := NewClient(&Config{Address: mr.Addr(), PoolSize: 5})
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("sets default pool size", func(t *testing.T) {
		config := &Config{Address: mr.Addr()}
		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 10, config.PoolSize)
	})

	t.Run("nil config", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Nil(t, client)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("password required", func(t *testing.T) {
		secured := miniredis.RunT(t)
		secured.RequireAuth("s3cret")

		_, err := NewClient(&Config{Address: secured.Addr(), Password: "wrong"})
		assert.Error(t, err)

		client, err := NewClient(&Config{Address: secured.Addr(), Password: "s3cret"})
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("connection failure", func(t *testing.T) {
		client, err := NewClient(&Config{Address: "127.0.0.1:1", PoolSize: 1})
		assert.Nil(t, client)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestClient_Health(t *testing.T) {
	client, mr := setupTestRedis(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestClient_SetNX(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	stored, err := client.SetNX(ctx, "webhook:delivery:github:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = client.SetNX(ctx, "webhook:delivery:github:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	assert.Equal(t, time.Minute, mr.TTL("webhook:delivery:github:1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("webhook:delivery:github:1"))

	stored, err = client.SetNX(ctx, "webhook:delivery:github:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	require.NoError(t, client.Delete(ctx, "webhook:delivery:github:1"))
	assert.False(t, mr.Exists("webhook:delivery:github:1"))
}

func TestClient_CheckRateLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	key := "ratelimit:webhooks:10.0.0.1"

	t.Run("hits in the same instant are all counted", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, count, err := client.CheckRateLimit(ctx, key, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed, "hit %d", i)
			assert.Equal(t, i, count)
		}

		allowed, count, err := client.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 3, count)
	})

	t.Run("window slides", func(t *testing.T) {
		short := "ratelimit:webhooks:10.0.0.2"
		allowed, _, err := client.CheckRateLimit(ctx, short, 1, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _, err = client.CheckRateLimit(ctx, short, 1, 50*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, allowed)

		time.Sleep(120 * time.Millisecond)

		allowed, _, err = client.CheckRateLimit(ctx, short, 1, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestClient_PubSub(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	channel := "webhooks.github"

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(channel)

	require.NoError(t, client.Publish(ctx, channel, "plain"))
	require.NoError(t, client.Publish(ctx, channel, []byte("raw")))
	require.NoError(t, client.Publish(ctx, channel, map[string]string{"type": "push"}))

	assert.Equal(t, "plain", (<-sub.Messages()).Message)
	assert.Equal(t, "raw", (<-sub.Messages()).Message)
	assert.JSONEq(t, `{"type":"push"}`, (<-sub.Messages()).Message)

	err := client.Publish(ctx, channel, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
}
