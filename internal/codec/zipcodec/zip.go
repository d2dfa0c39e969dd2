// Package zipcodec decodes fully buffered zip archives and encodes
// single-entry archives.
package zipcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zip"
)

// ErrEntryTooLarge is returned when an entry's uncompressed size exceeds
// the configured maximum.
var ErrEntryTooLarge = errors.New("zipcodec: entry exceeds maximum size")

// initialBufferSize caps the allocation made for an entry before any of it
// has been inflated.
const initialBufferSize = 64 << 10

// Entry is a decoded zip member.
type Entry struct {
	Name    string
	Content []byte
}

type options struct {
	maxSize uint64
}

// Option configures Decode.
type Option func(*options)

// WithMaxEntrySize sets the largest uncompressed entry Decode accepts.
// Values <= 0 keep the default of math.MaxInt32.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = uint64(n)
		}
	}
}

// Decode returns the file entries of the zip archive in data, in central
// directory order. Directory entries are skipped. An empty buffer decodes
// to no entries.
func Decode(data []byte, opts ...Option) ([]Entry, error) {
	o := options{maxSize: math.MaxInt32}
	for _, opt := range opts {
		opt(&o)
	}
	if len(data) == 0 {
		return nil, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading zip directory: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > o.maxSize {
			return nil, fmt.Errorf("%s (%d bytes): %w", f.Name, f.UncompressedSize64, ErrEntryTooLarge)
		}
		content, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Content: content})
	}
	return entries, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, min(f.UncompressedSize64, initialBufferSize)))
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode returns a zip archive holding exactly one deflated entry named
// name whose content is read from r.
func Encode(name string, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return nil, fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return nil, fmt.Errorf("writing entry %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing zip: %w", err)
	}
	return buf.Bytes(), nil
}
