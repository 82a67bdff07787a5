// Package cache stores forecast values between runs, in process or in Redis.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	values    []float64
	expiresAt time.Time
}

// Memory is a size-bounded LRU store with optional TTL. It is safe for
// concurrent use.
type Memory struct {
	cache *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewMemory creates a store holding at most size forecasts. A zero ttl
// never expires entries.
func NewMemory(size int, ttl time.Duration) (*Memory, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns a copy of the stored values for key.
func (m *Memory) Get(_ context.Context, key string) ([]float64, bool, error) {
	e, ok := m.cache.Get(key)
	if ok && m.ttl > 0 && m.now().After(e.expiresAt) {
		m.cache.Remove(key)
		ok = false
	}

	m.mu.Lock()
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()

	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), e.values...), true, nil
}

// Set stores a copy of values under key.
func (m *Memory) Set(_ context.Context, key string, values []float64) error {
	e := entry{values: append([]float64(nil), values...)}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.cache.Add(key, e)
	return nil
}

// Len returns the number of stored forecasts.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Stats returns the hit and miss counts.
func (m *Memory) Stats() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
