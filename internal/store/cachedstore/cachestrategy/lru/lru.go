// Package lru implements an LRU cache eviction strategy.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/unpack/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements LRU eviction and tracks the bytes it holds.
type Strategy struct {
	cache *lru.Cache[string, []byte]
	bytes atomic.Int64
}

// New creates a new LRU strategy holding at most capacity objects.
func New(capacity int) (*Strategy, error) {
	s := &Strategy{}
	c, err := lru.NewWithEvict(capacity, func(_ string, value []byte) {
		s.bytes.Add(-int64(len(value)))
	})
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

// Get retrieves a value by key.
func (s *Strategy) Get(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add adds a value to the cache and reports whether an eviction occurred.
// Replacing a key does not count as an eviction.
func (s *Strategy) Add(key string, value []byte) bool {
	if old, ok := s.cache.Peek(key); ok {
		s.bytes.Add(-int64(len(old)))
	}
	s.bytes.Add(int64(len(value)))
	return s.cache.Add(key, value)
}

// Remove drops key from the cache.
func (s *Strategy) Remove(key string) {
	s.cache.Remove(key)
}

// RemoveOldest drops the least recently used key and returns it.
func (s *Strategy) RemoveOldest() (string, bool) {
	key, _, ok := s.cache.RemoveOldest()
	return key, ok
}

// Len returns the number of items in the cache.
func (s *Strategy) Len() int {
	return s.cache.Len()
}

// Bytes returns the summed length of the cached values.
func (s *Strategy) Bytes() int64 {
	return s.bytes.Load()
}
