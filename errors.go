package unpack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/discochess/unpack/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrSourceNotFound indicates a path or object key does not exist.
	ErrSourceNotFound = errors.New("unpack: source not found")

	// ErrCodec indicates malformed compressed or archive data.
	ErrCodec = errors.New("unpack: malformed data")

	// ErrIO indicates a read or write failure of the underlying source or sink.
	ErrIO = errors.New("unpack: i/o failure")

	// ErrEntryDecode indicates a single archive entry could not be decoded.
	// Errors carrying it are *EntryDecodeError values.
	ErrEntryDecode = errors.New("unpack: entry decode failure")

	// ErrConsumed indicates a one-shot source or stream was already used.
	ErrConsumed = errors.New("unpack: source already consumed")

	// ErrNoStore indicates an object source was requested without a store.
	ErrNoStore = errors.New("unpack: no store provided")

	// ErrClosed indicates the reader has been closed.
	ErrClosed = errors.New("unpack: reader closed")
)

// EntryDecodeError reports a failure to decode one entry of a streaming
// archive. Label is the entry name when the header was readable, and the
// entry's position ("entry 3") otherwise.
type EntryDecodeError struct {
	Label string
	Err   error
}

func (e *EntryDecodeError) Error() string {
	return fmt.Sprintf("unpack: decoding %s: %v", e.Label, e.Err)
}

// Is reports whether target is ErrEntryDecode.
func (e *EntryDecodeError) Is(target error) bool {
	return target == ErrEntryDecode
}

func (e *EntryDecodeError) Unwrap() error {
	return e.Err
}

// openError classifies a failure to open a source.
func openError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrSourceNotFound, name, err)
	}
	return fmt.Errorf("%w: opening %s: %w", ErrIO, name, err)
}

// ioError wraps a read or write failure of a source or sink.
func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// trackedSource wraps a raw source and records its first read failure, so
// that errors surfacing through a decoder can be attributed either to the
// source (ErrIO) or to the data itself (ErrCodec).
type trackedSource struct {
	io.ReadCloser
	err error
}

func (t *trackedSource) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}

// classify wraps err, seen while decoding data read from t.
func (t *trackedSource) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCodec) || errors.Is(err, ErrIO) {
		return err
	}
	if t.err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCodec, op, err)
}
