// Package bzip2codec provides a decode-only bzip2 codec.
package bzip2codec

import (
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/discochess/unpack/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Magic is the bzip2 stream signature; a block-size digit follows it.
var Magic = []byte("BZh")

// Codec implements bzip2 decompression.
type Codec struct{}

// New returns a new bzip2 codec.
func New() *Codec {
	return &Codec{}
}

// Name returns "bzip2".
func (c *Codec) Name() string {
	return "bzip2"
}

// Reader wraps r to decompress bzip2 data. Header errors surface on the
// first Read.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(r)), nil
}

// Writer always fails: bzip2 encoding is not supported.
func (c *Codec) Writer(io.Writer) (io.WriteCloser, error) {
	return nil, fmt.Errorf("bzip2 writer: %w", codec.ErrUnsupported)
}

// Extension returns "bz2".
func (c *Codec) Extension() string {
	return "bz2"
}
