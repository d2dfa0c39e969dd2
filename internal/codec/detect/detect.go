// Package detect selects a decompressor by sniffing the leading bytes of a
// stream.
package detect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/bzip2codec"
	"github.com/discochess/unpack/internal/codec/gzipcodec"
	"github.com/discochess/unpack/internal/codec/lz4codec"
	"github.com/discochess/unpack/internal/codec/s2codec"
	"github.com/discochess/unpack/internal/codec/zstdcodec"
)

// ErrUnknownFormat is returned when no supported signature matches.
var ErrUnknownFormat = errors.New("detect: unknown compression format")

// Format identifies a compressed stream format.
type Format int

// Supported formats.
const (
	Unknown Format = iota
	Gzip
	Bzip2
	Zstd
	LZ4
	S2
)

// peekSize covers the longest signature (the S2/Snappy stream identifier).
const peekSize = 10

func (f Format) String() string {
	switch f {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case S2:
		return "s2"
	default:
		return "unknown"
	}
}

// Codec returns the codec that decodes f, or nil for Unknown.
func (f Format) Codec() codec.Codec {
	switch f {
	case Gzip:
		return gzipcodec.New()
	case Bzip2:
		return bzip2codec.New()
	case Zstd:
		return zstdcodec.New()
	case LZ4:
		return lz4codec.New()
	case S2:
		return s2codec.New()
	default:
		return nil
	}
}

// Sniff reports the format whose signature prefixes header.
func Sniff(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, gzipcodec.Magic):
		return Gzip
	case bytes.HasPrefix(header, bzip2codec.Magic) && len(header) > 3 &&
		header[3] >= '1' && header[3] <= '9':
		return Bzip2
	case bytes.HasPrefix(header, zstdcodec.Magic):
		return Zstd
	case bytes.HasPrefix(header, lz4codec.Magic):
		return LZ4
	case bytes.HasPrefix(header, s2codec.Magic), bytes.HasPrefix(header, s2codec.SnappyMagic):
		return S2
	default:
		return Unknown
	}
}

// Peek sniffs the format of r without consuming it. The returned reader
// yields the full stream, peeked bytes included.
func Peek(r io.Reader) (Format, io.Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return Unknown, br, fmt.Errorf("peeking header: %w", err)
	}
	return Sniff(header), br, nil
}

// NewReader detects the format of r and returns a decompressing reader.
// Closing the result closes r when r is an io.Closer. On error r is left
// open for the caller.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	format, br, err := Peek(r)
	if err != nil {
		return nil, Unknown, err
	}
	c := format.Codec()
	if c == nil {
		return nil, Unknown, ErrUnknownFormat
	}
	dec, err := c.Reader(br)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return codec.CloseWith(dec, r), format, nil
}
