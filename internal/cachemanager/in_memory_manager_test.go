package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type portKey string

type cachedPort struct {
	ID   uint32
	Name string
}

func newPortCache() *InMemoryCacheManager[portKey, cachedPort] {
	return NewInMemoryCacheManager[portKey, cachedPort]("ports", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_SetAndGet(t *testing.T) {
	cache := newPortCache()
	want := cachedPort{ID: 10, Name: "playback_FL"}
	cache.Set(context.Background(), "sink:playback_FL", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "sink:playback_FL")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := newPortCache()

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_WrongTypeIsAMiss(t *testing.T) {
	cache := newPortCache()
	cache.cache.Set("sink:x", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "sink:x")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := newPortCache()
	cache.Set(context.Background(), "short", cachedPort{ID: 1}, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "short")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newPortCache()
	ctx := context.Background()

	_, ok := cache.GetWithRefresh(ctx, "a", time.Hour)
	require.False(t, ok)

	cache.Set(ctx, "a", cachedPort{ID: 1}, 30*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "a", time.Hour)
	require.True(t, ok)
	require.Equal(t, uint32(1), got.ID)

	time.Sleep(60 * time.Millisecond)
	_, ok = cache.Get(ctx, "a")
	require.True(t, ok, "refresh extends the ttl")
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := newPortCache()
	ctx := context.Background()

	require.NoError(t, cache.Flush(ctx))

	cache.Set(ctx, "a", cachedPort{ID: 1}, DefaultExpiration)
	cache.Set(ctx, "b", cachedPort{ID: 2}, DefaultExpiration)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
}
