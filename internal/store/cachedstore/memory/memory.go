// Package memory implements an in-memory cache backend.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/discochess/unpack/internal/stats"
	"github.com/discochess/unpack/internal/store/cachedstore"
	"github.com/discochess/unpack/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Backend implements cachedstore.Backend.
var _ cachedstore.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithMaxBytes bounds the summed size of cached archives. Archives larger
// than n are never cached, and older ones are dropped until a new archive
// fits. Values <= 0 leave the cache bounded by object count only.
func WithMaxBytes(n int64) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxBytes = n
		}
	}
}

// Backend is a thread-safe in-memory cache backend.
type Backend struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector
	maxBytes  int64

	// mu serializes Set so the byte budget holds after each insert.
	mu sync.Mutex

	hits     atomic.Int64
	misses   atomic.Int64
	rejected atomic.Int64
}

// New creates a new memory backend with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector, opts ...Option) *Backend {
	if collector == nil {
		collector = stats.Discard
	}
	b := &Backend{
		strategy:  strategy,
		collector: collector,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get retrieves object data from the cache.
func (b *Backend) Get(key string) ([]byte, bool) {
	val, ok := b.strategy.Get(key)
	if ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores object data in the cache, dropping the oldest objects while
// the byte budget is exceeded. An object over the whole budget is skipped
// and any stale copy under key is removed.
func (b *Backend) Set(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBytes > 0 && int64(len(data)) > b.maxBytes {
		b.rejected.Add(1)
		b.collector.IncCounter(stats.MetricCacheRejected, 1)
		b.strategy.Remove(key)
		b.publish()
		return
	}

	b.strategy.Add(key, data)
	for b.maxBytes > 0 && b.strategy.Bytes() > b.maxBytes {
		if _, ok := b.strategy.RemoveOldest(); !ok {
			break
		}
	}
	b.publish()
}

func (b *Backend) publish() {
	b.collector.SetGauge(stats.MetricCacheSize, int64(b.strategy.Len()))
	b.collector.SetGauge(stats.MetricCacheBytes, b.strategy.Bytes())
}

// Stats returns current cache statistics.
func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{
		Hits:     b.hits.Load(),
		Misses:   b.misses.Load(),
		Rejected: b.rejected.Load(),
		Size:     b.strategy.Len(),
		Bytes:    b.strategy.Bytes(),
	}
}

// Len returns the number of items in the cache.
func (b *Backend) Len() int {
	return b.strategy.Len()
}
