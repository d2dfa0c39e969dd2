package cachedstore

import (
	"bytes"
	"context"
	"io"

	"golang.org/x/sync/singleflight"

	"github.com/discochess/unpack/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store, keeping whole objects in a cache backend.
// Concurrent misses for the same key share one fetch.
type Store struct {
	underlying store.Store
	backend    Backend
	maxSize    int
	group      singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithMaxObjectSize skips caching objects larger than n bytes.
// Zero means no limit.
func WithMaxObjectSize(n int) Option {
	return func(s *Store) {
		s.maxSize = n
	}
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend, opts ...Option) *Store {
	s := &Store{
		underlying: underlying,
		backend:    backend,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the object stored under key, checking the cache first.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	// Check cache first.
	if data, ok := s.backend.Get(key); ok {
		return data, nil
	}

	// Cache miss - read from underlying store once per key. The shared
	// fetch outlives a canceled caller so waiting callers still get it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		data, err := store.ReadAll(fetchCtx, s.underlying, key)
		if err != nil {
			return nil, err
		}
		if s.maxSize == 0 || len(data) <= s.maxSize {
			s.backend.Set(key, data)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
