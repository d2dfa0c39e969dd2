// Package codec defines the byte-stream contract implemented by the
// per-format compression adapters.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupported is returned when a codec cannot perform an operation,
// such as encoding with a decode-only format.
var ErrUnsupported = errors.New("codec: operation not supported")

// Codec provides compression and decompression functionality.
type Codec interface {
	// Name returns the format name used in logs and errors (e.g., "gzip").
	Name() string
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// Decode fully decompresses r with c.
func Decode(c Codec, r io.Reader) ([]byte, error) {
	rc, err := c.Reader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return data, nil
}

// Encode compresses data with c and returns the encoded buffer.
func Encode(c Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// CloseWith returns dec with a Close method that also closes src when src
// is an io.Closer. Both are closed even if the first Close fails; the
// first error is returned.
func CloseWith(dec io.ReadCloser, src io.Reader) io.ReadCloser {
	c, ok := src.(io.Closer)
	if !ok {
		return dec
	}
	return &chainedCloser{ReadCloser: dec, src: c}
}

type chainedCloser struct {
	io.ReadCloser
	src io.Closer
}

func (c *chainedCloser) Close() error {
	err := c.ReadCloser.Close()
	if srcErr := c.src.Close(); err == nil {
		err = srcErr
	}
	return err
}
