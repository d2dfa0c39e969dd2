// Package diskstore implements a disk-based filesystem storage backend.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a disk-based filesystem storage backend.
type Store struct {
	root  string
	codec codec.Codec
}

// New creates a new disk store rooted at the given directory.
// The directory must exist. Objects are stored encoded with c and named
// after the key plus the codec extension.
func New(root string, c codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{
		root:  root,
		codec: c,
	}, nil
}

// Open opens the object stored under key and decodes it with the store codec.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// Check for cancellation before starting I/O.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(s.objectPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("opening object: %w", err)
	}

	reader, err := s.codec.Reader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return codec.CloseWith(reader, f), nil
}

// Put encodes data with the store codec and writes it under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return fmt.Errorf("encoding object: %w", err)
	}
	p := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(p, encoded, 0o644); err != nil {
		return fmt.Errorf("writing object: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// objectPath returns the filesystem path for a key.
func (s *Store) objectPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(store.ObjectName(key, s.codec.Extension())))
}
