package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRedisConfig(t *testing.T) {
	config := DefaultRedisConfig()

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 6379, config.Port)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 5, config.MinIdleConns)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
}

func TestNewRedisClient_FillsDefaults(t *testing.T) {
	client, err := NewRedisClient(RedisConfig{Host: "localhost", Port: 6379})

	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	assert.Equal(t, 10, client.config.PoolSize)
	assert.Equal(t, 5, client.config.MinIdleConns)
	assert.Equal(t, 3, client.config.MaxRetries)
	assert.NotNil(t, client.GetClient())
}

// The tests below need a live Redis (docker run -d -p 6379:6379 redis:7-alpine)

func liveRedis(t *testing.T) *RedisClient {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client, err := NewRedisClient(DefaultRedisConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisClient_SetGetDel(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()

	key := "test:db:setget"
	require.NoError(t, client.Set(ctx, key, "hello", 10*time.Second))

	val, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", val)

	require.NoError(t, client.Del(ctx, key))

	_, err = client.Get(ctx, key)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "key not found")
}

func TestRedisClient_SetOperations(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()

	key := "test:db:set"
	defer client.Del(ctx, key)

	require.NoError(t, client.SAdd(ctx, key, "a", "b", "c"))

	members, err := client.SMembers(ctx, key)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	require.NoError(t, client.SRem(ctx, key, "b"))
	members, err = client.SMembers(ctx, key)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.NotContains(t, members, "b")
}

func TestRedisClient_QueueOperations(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()

	key := "test:db:queue"
	defer client.Del(ctx, key)

	require.NoError(t, client.LPush(ctx, key, "first", "second"))

	// RPop drains in FIFO order relative to LPush
	val, err := client.RPop(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "first", val)

	val, err = client.RPop(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", val)
}

func TestRedisClient_Expire(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()

	key := "test:db:expire"
	require.NoError(t, client.Set(ctx, key, "ephemeral", 0))
	require.NoError(t, client.Expire(ctx, key, 50*time.Millisecond))

	time.Sleep(100 * time.Millisecond)

	exists, err := client.Exists(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
