package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStorage instance
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	s := NewRedisStorage(client, ttl)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return s, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, mr.Set(redisKey("sess:cart"), `[{"id":"1","quantity":2}]`))

	v, err := s.Get(context.Background(), "sess:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","quantity":2}]`, string(v))
}

func TestRedisGet_Miss(t *testing.T) {
	s, _, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	v, err := s.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, v)
}

func TestRedisSet_NoTTL(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, s.Set(context.Background(), "cart", []byte("[]")))

	stored, err := mr.Get(redisKey("cart"))
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
	assert.Equal(t, time.Duration(0), mr.TTL(redisKey("cart")))
}

func TestRedisSet_WithTTL(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 15*time.Minute)
	defer cleanup()

	require.NoError(t, s.Set(context.Background(), "cart", []byte("[]")))

	ttl := mr.TTL(redisKey("cart"))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestRedisDelete(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, mr.Set(redisKey("cart"), "[]"))
	assert.True(t, mr.Exists(redisKey("cart")))

	require.NoError(t, s.Delete(context.Background(), "cart"))
	assert.False(t, mr.Exists(redisKey("cart")))

	// deleting a missing key is fine
	assert.NoError(t, s.Delete(context.Background(), "cart"))
}

func TestRedisKey_Format(t *testing.T) {
	assert.Equal(t, "storefront:abc:cart", redisKey("abc:cart"))
}
