// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New creates a new GCS store.
// The bucket must already exist.
// The codec decodes the transport compression objects are stored with.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		codec:  c,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = store.NormalizePrefix(prefix)
	}
}

// Open streams the object stored under key, decoded with the store codec.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// Check for cancellation before starting.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	reader, err := s.bucket.Object(s.objectKey(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}

	decompressor, err := s.codec.Reader(reader)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return codec.CloseWith(decompressor, reader), nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// objectKey returns the full object name for key.
func (s *Store) objectKey(key string) string {
	return s.prefix + store.ObjectName(key, s.codec.Extension())
}
