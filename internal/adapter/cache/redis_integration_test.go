//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t testing.TB) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := redisCont.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get container endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestRedisCache_Integration(t *testing.T) {
	client := setupRedis(t)
	remote := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := remote.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, remote.Set(ctx, "abc123", "https://example.com"))

	got, ok, err := remote.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", got)

	ttl, err := client.TTL(ctx, keyPrefix+"abc123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestTiered_RedisHitRefillsLocal(t *testing.T) {
	client := setupRedis(t)
	remote := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "abc123", "https://example.com"))

	local, err := NewLocalCache(100, time.Minute)
	require.NoError(t, err)

	obs := newRecordingObserver()
	tiered := NewTiered(local, remote, WithObserver(obs), WithLogger(discardLogger()))
	defer tiered.Close()

	got, ok := tiered.Get(ctx, "abc123")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got)
	assert.Equal(t, 1, obs.count(LayerRedis, ResultHit))

	local.Wait()

	got, ok = local.Get("abc123")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", got)
}
