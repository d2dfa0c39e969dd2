// Package gzipcodec provides a gzip compression codec.
package gzipcodec

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/discochess/unpack/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Magic is the two-byte gzip member signature.
var Magic = []byte{0x1f, 0x8b}

// Codec implements gzip compression.
type Codec struct {
	level int
}

// Option configures a Codec.
type Option func(*Codec)

// WithLevel sets the compression level used by Writer.
// Levels outside gzip.HuffmanOnly..gzip.BestCompression make Writer fail.
func WithLevel(level int) Option {
	return func(c *Codec) { c.level = level }
}

// New returns a new gzip codec.
func New(opts ...Option) *Codec {
	c := &Codec{level: gzip.DefaultCompression}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "gzip".
func (c *Codec) Name() string {
	return "gzip"
}

// Reader wraps r to decompress gzip data. Concatenated members are read as
// one stream. A malformed header fails here; a bad footer fails on Read.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Writer wraps w to compress data with gzip.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.level)
}

// Extension returns "gz".
func (c *Codec) Extension() string {
	return "gz"
}
