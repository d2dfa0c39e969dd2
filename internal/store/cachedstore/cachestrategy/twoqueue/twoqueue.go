// Package twoqueue implements a 2Q cache eviction strategy, which keeps
// objects fetched once apart from objects fetched repeatedly.
package twoqueue

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/unpack/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements 2Q eviction.
type Strategy struct {
	cache *lru.TwoQueueCache[string, []byte]
}

// New creates a new 2Q strategy with the given capacity.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New2Q[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

// Get retrieves a value by key.
func (s *Strategy) Get(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add adds a value to the cache. 2Q does not report evictions.
func (s *Strategy) Add(key string, value []byte) bool {
	s.cache.Add(key, value)
	return false
}

// Remove drops key from the cache.
func (s *Strategy) Remove(key string) {
	s.cache.Remove(key)
}

// RemoveOldest drops the first key in 2Q order: the least recently used
// of the repeatedly fetched objects, then the oldest of the others.
func (s *Strategy) RemoveOldest() (string, bool) {
	keys := s.cache.Keys()
	if len(keys) == 0 {
		return "", false
	}
	s.cache.Remove(keys[0])
	return keys[0], true
}

// Len returns the number of items in the cache.
func (s *Strategy) Len() int {
	return s.cache.Len()
}

// Bytes returns the summed length of the cached values. 2Q evicts without
// a callback, so the sum is taken on demand.
func (s *Strategy) Bytes() int64 {
	var n int64
	for _, v := range s.cache.Values() {
		n += int64(len(v))
	}
	return n
}
