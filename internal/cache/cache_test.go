package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/steelcast/forecast"
)

// Both stores back the forecast cache decorator.
var (
	_ forecast.Store = (*Memory)(nil)
	_ forecast.Store = (*Redis)(nil)
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2, 0)
	require.NoError(t, err)

	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	values := []float64{1.5, 2.5}
	require.NoError(t, m.Set(ctx, "a", values))
	values[0] = 99 // the store keeps its own copy

	got, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, got)

	hits, misses := m.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestMemoryEviction(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2, 0)
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "a", []float64{1}))
	require.NoError(t, m.Set(ctx, "b", []float64{2}))
	require.NoError(t, m.Set(ctx, "c", []float64{3}))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry should be evicted")
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(4, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []float64{1}))
	_, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestNewMemoryInvalidSize(t *testing.T) {
	_, err := NewMemory(0, 0)
	assert.Error(t, err)
}

func TestRedisGetSet(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	r := NewRedis(client, "steelcast:forecast:", time.Hour)
	require.NoError(t, r.Ping(ctx))

	_, ok, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k1", []float64{410.25, 415.5}))
	assert.True(t, s.Exists("steelcast:forecast:k1"))

	got, ok, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float64{410.25, 415.5}, got)

	s.FastForward(2 * time.Hour)
	_, ok, err = r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the ttl")
}

func TestRedisCorruptEntry(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, s.Set("p:bad", "not json"))

	r := NewRedis(client, "p:", 0)
	_, ok, err := r.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s.Close()

	r := NewRedis(client, "p:", 0)
	_, _, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "k", []float64{1}))
}
