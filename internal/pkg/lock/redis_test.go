package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedis_Exec(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	l := NewRedis(client)
	other := NewRedis(client)

	err := l.Exec(ctx, "account", func(ctx context.Context) error {
		ttl, err := client.TTL(ctx, "lock:account").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		inner := other.Exec(ctx, "account", func(context.Context) error { return nil }, WithWait(50*time.Millisecond))
		assert.ErrorIs(t, inner, ErrNotAcquired)
		return nil
	}, WithTTL(time.Minute))
	require.NoError(t, err)

	exists, err := client.Exists(ctx, "lock:account").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	l := NewRedis(client)

	err := l.Exec(ctx, "account", func(ctx context.Context) error {
		// another holder took over after expiry
		return client.Set(ctx, "lock:account", "someone-else", time.Minute).Err()
	})
	require.NoError(t, err)

	val, err := client.Get(ctx, "lock:account").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}
