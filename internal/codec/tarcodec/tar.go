// Package tarcodec decodes a tar stream into whole in-memory entries, one
// at a time.
package tarcodec

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ErrEntryTooLarge is returned when an entry's declared size exceeds the
// configured maximum. The reader stays usable and skips the payload.
var ErrEntryTooLarge = errors.New("tarcodec: entry exceeds maximum size")

// DefaultMaxEntrySize bounds a single in-memory entry.
const DefaultMaxEntrySize = math.MaxInt32

const (
	blockSize = 512

	// initialBufferSize caps the allocation made for a payload before any
	// of it has been read.
	initialBufferSize = 64 << 10
)

// Entry is a regular tar member with its full payload.
type Entry struct {
	Name    string
	Content []byte
}

// Option configures an EntryReader.
type Option func(*EntryReader)

// WithMaxEntrySize sets the largest payload Next will buffer.
// Values <= 0 keep DefaultMaxEntrySize.
func WithMaxEntrySize(n int64) Option {
	return func(er *EntryReader) {
		if n > 0 {
			er.maxSize = n
		}
	}
}

// EntryReader reads regular-file entries from a tar stream.
// It is not safe for concurrent use.
type EntryReader struct {
	src     *sourceReader
	tr      *tar.Reader
	maxSize int64

	// broken is set when the current tar.Reader hit a sticky error.
	broken bool
	// resyncing makes Next scan for the next block with a valid header
	// checksum before reading on.
	resyncing bool
	// done is set once the source failed and the failure was reported.
	done bool
}

// NewEntryReader returns a reader over the tar stream r.
func NewEntryReader(r io.Reader, opts ...Option) *EntryReader {
	src := &sourceReader{r: r}
	er := &EntryReader{
		src:     src,
		tr:      tar.NewReader(src),
		maxSize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(er)
	}
	return er
}

// Next returns the next regular-file entry in archive order. Directories,
// links and other non-regular members are skipped. It returns io.EOF at the
// end-of-archive marker or when the underlying stream ends.
//
// After a framing error the reader is unusable until Resync is called.
// Once the underlying stream itself fails, that error is returned once
// and every later call returns io.EOF.
func (er *EntryReader) Next() (Entry, error) {
	if er.done {
		return Entry{}, io.EOF
	}
	if er.resyncing {
		if err := er.seekHeader(); err != nil {
			return Entry{}, err
		}
	}
	for {
		hdr, err := er.tr.Next()
		if err != nil {
			if srcErr := er.src.err; srcErr != nil {
				er.done = true
				return Entry{}, fmt.Errorf("reading tar stream: %w", srcErr)
			}
			if errors.Is(err, io.EOF) {
				return Entry{}, io.EOF
			}
			er.broken = true
			return Entry{}, fmt.Errorf("reading tar header: %w", err)
		}

		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		if hdr.Size > er.maxSize {
			return Entry{Name: hdr.Name}, fmt.Errorf("%s (%d bytes): %w", hdr.Name, hdr.Size, ErrEntryTooLarge)
		}

		content, err := readPayload(er.tr, hdr.Size)
		if err != nil {
			if srcErr := er.src.err; srcErr != nil {
				er.done = true
				return Entry{Name: hdr.Name}, fmt.Errorf("reading %s: %w", hdr.Name, srcErr)
			}
			er.broken = true
			return Entry{Name: hdr.Name}, fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		return Entry{Name: hdr.Name, Content: content}, nil
	}
}

// Resync recovers from a framing error returned by Next. The following Next
// call advances block by block until it finds a valid header. Resync is a
// no-op when the last error left the reader usable.
func (er *EntryReader) Resync() {
	if !er.broken {
		return
	}
	er.broken = false
	er.resyncing = true
}

// seekHeader reads one block at a time until a block carries a valid
// header checksum, then restarts the tar reader at that block. Running out
// of input ends the archive.
func (er *EntryReader) seekHeader() error {
	blk := make([]byte, blockSize)
	for {
		if _, err := io.ReadFull(er.src, blk); err != nil {
			er.done = true
			if srcErr := er.src.err; srcErr != nil {
				return fmt.Errorf("reading tar stream: %w", srcErr)
			}
			return io.EOF
		}
		if validChecksum(blk) {
			er.tr = tar.NewReader(io.MultiReader(bytes.NewReader(blk), er.src))
			er.resyncing = false
			return nil
		}
	}
}

// validChecksum reports whether blk is a header block whose stored
// checksum matches its content. Both the unsigned and the historic signed
// sum are accepted.
func validChecksum(blk []byte) bool {
	field := bytes.Trim(blk[148:156], " \x00")
	if len(field) == 0 {
		return false
	}
	stored, err := strconv.ParseInt(string(field), 8, 64)
	if err != nil {
		return false
	}
	var unsigned, signed int64
	for i, c := range blk {
		if i >= 148 && i < 156 {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return stored == unsigned || stored == signed
}

// readPayload reads exactly size bytes, growing the buffer as data arrives
// instead of trusting the declared size up front.
func readPayload(r io.Reader, size int64) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, min(size, initialBufferSize)))
	if _, err := io.CopyN(buf, r, size); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// sourceReader records the first non-EOF error of the underlying stream so
// that source failures are not mistaken for tar framing errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}
