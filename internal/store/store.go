// Package store defines the object storage interface archive sources are
// fetched from.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when an object does not exist in the store.
var ErrNotFound = errors.New("store: object not found")

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("store: invalid key")

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// Open returns a reader over the object stored under key.
	// The caller must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Close releases any resources held by the store.
	Close() error
}

// ReadAll reads the whole object stored under key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// ValidateKey checks that key is a clean, relative, slash-separated path.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key ||
		key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return nil
}

// ObjectName returns the stored name of key for an object encoded with a
// codec whose extension is ext.
func ObjectName(key, ext string) string {
	if ext == "" {
		return key
	}
	return key + "." + ext
}

// NormalizePrefix returns prefix with exactly one trailing slash, or the
// empty string.
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
