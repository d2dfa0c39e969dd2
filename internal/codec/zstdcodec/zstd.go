// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/unpack/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Magic is the zstd frame signature.
var Magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Codec implements zstd compression.
type Codec struct {
	maxMemory uint64
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxMemory bounds the memory the decoder may allocate for a single
// frame window. Zero keeps the library default.
func WithMaxMemory(n uint64) Option {
	return func(c *Codec) { c.maxMemory = n }
}

// New returns a new zstd codec.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "zstd".
func (c *Codec) Name() string {
	return "zstd"
}

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	var dopts []zstd.DOption
	if c.maxMemory > 0 {
		dopts = append(dopts, zstd.WithDecoderMaxMemory(c.maxMemory))
	}
	decoder, err := zstd.NewReader(r, dopts...)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
