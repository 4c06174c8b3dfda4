package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webhook-guard/internal/testutil"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "github:72d3162e", Key("github", "72d3162e"))
}

func TestMemoryStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	first, err := store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.False(t, first)

	first, _ = store.MarkProcessed(ctx, "stripe:1", time.Hour)
	assert.True(t, first)

	now = now.Add(time.Hour)
	first, _ = store.MarkProcessed(ctx, "github:1", time.Hour)
	assert.True(t, first, "expired keys count as new")
}

func TestMemoryStore_Release(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	first, _ := store.MarkProcessed(ctx, "github:1", time.Hour)
	require.True(t, first)
	require.NoError(t, store.Release(ctx, "github:1"))
	assert.Zero(t, store.Len())

	first, _ = store.MarkProcessed(ctx, "github:1", time.Hour)
	assert.True(t, first, "released keys count as new")

	assert.NoError(t, store.Release(ctx, "never-seen"))
}

func TestMemoryStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	_, _ = store.MarkProcessed(ctx, "a", time.Minute)
	_, _ = store.MarkProcessed(ctx, "b", time.Hour)
	require.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ScheduledCleanup(t *testing.T) {
	store := NewMemoryStore(nil)
	_, _ = store.MarkProcessed(context.Background(), "short", time.Millisecond)

	require.NoError(t, store.StartCleanup("@every 1s"))
	assert.Error(t, store.StartCleanup("@every 1s"))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, store.Close())
	store.Stop()
}

func TestMemoryStore_InvalidSchedule(t *testing.T) {
	store := NewMemoryStore(nil)
	assert.Error(t, store.StartCleanup("every hour"))
	assert.NoError(t, store.Close())
}

func TestMemoryStore_ConcurrentFirstWins(t *testing.T) {
	store := NewMemoryStore(nil)
	var firsts int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if first, _ := store.MarkProcessed(context.Background(), "stripe:evt_1", time.Hour); first {
				atomic.AddInt32(&firsts, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), firsts)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, mr := testutil.NewRedis(t)
	store := NewRedisStore(client)

	first, err := store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.False(t, first)

	assert.True(t, mr.Exists(KeyPrefix+"github:1"))
	assert.Equal(t, time.Hour, mr.TTL(KeyPrefix+"github:1"))

	mr.FastForward(2 * time.Hour)
	first, err = store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, store.Release(ctx, "github:1"))
	assert.False(t, mr.Exists(KeyPrefix+"github:1"))
	first, err = store.MarkProcessed(ctx, "github:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, store.Release(ctx, "github:404"))

	assert.NoError(t, store.Close())

	mr.Close()
	_, err = store.MarkProcessed(ctx, "github:2", time.Hour)
	assert.Error(t, err)
	assert.Error(t, store.Release(ctx, "github:2"))
}
