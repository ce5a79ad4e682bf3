package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize is the entry cap of the in-memory cache.
const DefaultSize = 100

// Memory is a size-bounded in-process cache. Once full, the least
// recently used entry is evicted.
type Memory struct {
	lru   *expirable.LRU[string, []byte]
	stats struct {
		hits      atomic.Int64
		misses    atomic.Int64
		sets      atomic.Int64
		evictions atomic.Int64
	}
}

// NewMemory returns a cache holding at most size entries for ttl each.
// A non-positive size uses DefaultSize; a zero ttl never expires.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	m := &Memory{}
	m.lru = expirable.NewLRU[string, []byte](size, func(string, []byte) {
		m.stats.evictions.Add(1)
	}, ttl)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.lru.Get(key)
	if !ok {
		m.stats.misses.Add(1)
		return nil, false
	}
	m.stats.hits.Add(1)
	return v, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.lru.Add(key, value)
	m.stats.sets.Add(1)
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.lru.Remove(key)
}

func (m *Memory) Stats() Stats {
	return Stats{
		Hits:        m.stats.hits.Load(),
		Misses:      m.stats.misses.Load(),
		Sets:        m.stats.sets.Load(),
		Evictions:   m.stats.evictions.Load(),
		CurrentSize: m.lru.Len(),
	}
}
