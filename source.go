package unpack

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/discochess/unpack/internal/codec/noopcodec"
)

// source opens the raw bytes behind a view. Reader-backed sources can be
// opened once; byte, file and fetched-object sources reopen freely.
type source struct {
	name  string
	open  func() (io.ReadCloser, error)
	close func() error
}

// release closes a reader-backed source that was never opened. Opened
// sources are closed by whoever opened them.
func (s *source) release() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func bytesSource(data []byte) *source {
	return &source{
		name: "bytes",
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// readerSource takes ownership of r: it is closed with the view when it
// is an io.Closer, or by release if the view is never read.
func readerSource(name string, r io.Reader) *source {
	var used atomic.Bool
	return &source{
		name: name,
		open: func() (io.ReadCloser, error) {
			if !used.CompareAndSwap(false, true) {
				return nil, ErrConsumed
			}
			return noopcodec.New().Reader(r)
		},
		close: func() error {
			if !used.CompareAndSwap(false, true) {
				return nil
			}
			if c, ok := r.(io.Closer); ok {
				if err := c.Close(); err != nil {
					return ioError("closing "+name, err)
				}
			}
			return nil
		},
	}
}

// fileSource checks that path exists now and opens it on demand.
func fileSource(path string) (*source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, openError(path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIO, path)
	}
	return &source{
		name: path,
		open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, openError(path, err)
			}
			return f, nil
		},
	}, nil
}

// openTracked opens src behind a read buffer of size n.
func (s *source) openTracked(n int) (*trackedSource, io.Reader, error) {
	rc, err := s.open()
	if err != nil {
		return nil, nil, err
	}
	t := &trackedSource{ReadCloser: rc}
	return t, bufio.NewReaderSize(t, n), nil
}

// readAll reads the whole source and closes it.
func (s *source) readAll() ([]byte, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, ioError("reading "+s.name, err)
	}
	return data, nil
}
