// Package lz4codec provides an LZ4 frame codec.
package lz4codec

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/discochess/unpack/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Magic is the LZ4 frame signature.
var Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// Codec implements LZ4 frame compression.
type Codec struct {
	level lz4.CompressionLevel
}

// Option configures a Codec.
type Option func(*Codec)

// WithLevel sets the compression level used by Writer.
func WithLevel(level lz4.CompressionLevel) Option {
	return func(c *Codec) { c.level = level }
}

// New returns a new LZ4 codec.
func New(opts ...Option) *Codec {
	c := &Codec{level: lz4.Fast}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "lz4".
func (c *Codec) Name() string {
	return "lz4"
}

// Reader wraps r to decompress an LZ4 frame stream.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// Writer wraps w to compress data into an LZ4 frame stream.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(c.level)); err != nil {
		return nil, err
	}
	return zw, nil
}

// Extension returns "lz4".
func (c *Codec) Extension() string {
	return "lz4"
}
