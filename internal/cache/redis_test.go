package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/config"
)

type testStruct struct {
	Title string
	Views int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Title: "Weekly outlook", Views: 30}
	require.NoError(t, cache.Set(ctx, "content:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "content:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", "value", time.Minute))
	require.NoError(t, cache.Set(ctx, "b", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "a", "b"))
	require.NoError(t, cache.Invalidate(ctx))

	var out string
	found, err := cache.Get(ctx, "a", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestClaim(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	first, err := cache.Claim(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := cache.Claim(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, second, "повторное событие не должно быть захвачено")

	require.NoError(t, cache.Release(ctx, "stripe:evt_1"))
	again, err := cache.Claim(ctx, "stripe:evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, again)

	assert.Equal(t, time.Hour, mr.TTL("stripe:evt_1"))
}

func TestClaim_RedisDown(t *testing.T) {
	cache, mr := setupTestCache(t)
	mr.Close()

	ok, err := cache.Claim(context.Background(), "k", time.Minute)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cache, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  200 * time.Millisecond,
	})
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
