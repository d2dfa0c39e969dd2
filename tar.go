package unpack

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/gzipcodec"
	"github.com/discochess/unpack/internal/codec/tarcodec"
	"github.com/discochess/unpack/internal/stats"
)

// TarReader reads a gzip-compressed tar archive as a single-pass stream.
// Each TarReader hands out one stream; reading the archive again requires a
// new TarReader from the Reader.
type TarReader struct {
	src      *source
	cfg      options
	streamed atomic.Bool
}

func newTarReader(src *source, cfg options) *TarReader {
	return &TarReader{src: src, cfg: cfg}
}

// Stream opens the archive and returns its entry stream. The gzip header is
// read immediately, so a source that is not gzip fails here with ErrCodec.
// An empty source yields an empty stream. A second call returns ErrConsumed.
func (t *TarReader) Stream() (*EntryStream, error) {
	if !t.streamed.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}

	tracked, buffered, err := t.src.openTracked(t.cfg.bufferSize)
	if err != nil {
		return nil, err
	}

	s := &EntryStream{
		name:    t.src.name,
		src:     tracked,
		handler: t.cfg.handler,
		stats:   t.cfg.stats,
		logger:  t.cfg.logger,
	}

	gz, err := gzipcodec.New().Reader(buffered)
	switch {
	case errors.Is(err, io.EOF):
		tracked.Close()
		s.state = stateExhausted
		return s, nil
	case err != nil:
		tracked.Close()
		return nil, tracked.classify("reading gzip header", err)
	}

	s.closer = codec.CloseWith(gz, tracked)
	s.entries = tarcodec.NewEntryReader(gz, tarcodec.WithMaxEntrySize(t.cfg.maxEntrySize))
	s.logger.Debug("stream opened", zap.String("source", s.name))
	return s, nil
}

// Close releases a reader-backed source that was never streamed; afterwards
// Stream returns ErrConsumed. Once a stream exists, closing it is the
// stream's job and Close does nothing. Byte and file sources hold nothing
// open, so Close is a no-op for them.
func (t *TarReader) Close() error {
	return t.src.release()
}

// ToMap drains the stream into an EntryMap. When a name occurs more than
// once the last content wins. If the stream aborts, the entries read so far
// are returned along with the error.
func (t *TarReader) ToMap() (*EntryMap, error) {
	s, err := t.Stream()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	m := NewEntryMap(0)
	for s.Next() {
		e := s.Entry()
		m.Set(e.Name, e.Content)
	}
	return m, s.Err()
}

// First returns the first entry and closes the stream without reading the
// rest of the archive. The boolean is false for an empty archive.
func (t *TarReader) First() (Entry, bool, error) {
	s, err := t.Stream()
	if err != nil {
		return Entry{}, false, err
	}
	defer s.Close()

	if s.Next() {
		return s.Entry(), true, nil
	}
	return Entry{}, false, s.Err()
}

type streamState int

const (
	stateOpen streamState = iota
	stateReading
	stateExhausted
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateReading:
		return "reading"
	case stateExhausted:
		return "exhausted"
	case stateClosed:
		return "closed"
	default:
		return fmt.Sprintf("streamState(%d)", int(s))
	}
}

// EntryStream is a single-pass iterator over the entries of a tar archive.
// The underlying source is closed exactly once: by Close, when Next reaches
// the end of the archive, or when the error handler aborts the stream.
// An EntryStream is not safe for concurrent use.
//
//	s, err := tr.Stream()
//	if err != nil { ... }
//	defer s.Close()
//	for s.Next() {
//	    e := s.Entry()
//	    ...
//	}
//	if err := s.Err(); err != nil { ... }
type EntryStream struct {
	name    string
	src     *trackedSource
	closer  io.Closer
	entries *tarcodec.EntryReader

	handler ErrorHandler
	stats   stats.Collector
	logger  *zap.Logger

	state    streamState
	current  Entry
	err      error
	closeErr error
	pulls    int
	produced int
}

// Next advances to the next entry. It returns false at the end of the
// archive, after Close, or when the error handler aborts the stream; Err
// tells those apart.
func (s *EntryStream) Next() bool {
	if s.state == stateExhausted || s.state == stateClosed {
		return false
	}
	s.state = stateReading
	s.current = Entry{}

	for {
		s.pulls++
		e, err := s.entries.Next()
		if err == nil {
			s.current = Entry{Name: e.Name, Content: e.Content}
			s.produced++
			s.stats.IncCounter(stats.MetricEntriesRead, 1)
			s.stats.ObserveHistogram(stats.MetricEntryBytes, float64(len(e.Content)))
			return true
		}
		if errors.Is(err, io.EOF) {
			s.finish(stateExhausted, nil)
			return false
		}

		label := e.Name
		if label == "" {
			label = fmt.Sprintf("entry %d", s.pulls)
		}
		decodeErr := &EntryDecodeError{Label: label, Err: s.src.classify("reading tar", err)}
		s.stats.IncCounter(stats.MetricEntryErrors, 1)

		if herr := s.handler.HandleError(label, decodeErr); herr != nil {
			s.finish(stateClosed, herr)
			return false
		}
		s.logger.Debug("entry dropped",
			zap.String("source", s.name),
			zap.String("label", label),
			zap.Error(decodeErr),
		)
		s.entries.Resync()
	}
}

// Entry returns the entry produced by the last successful Next.
func (s *EntryStream) Entry() Entry {
	return s.current
}

// Err returns the error that ended the stream, or nil after a normal end.
func (s *EntryStream) Err() error {
	return s.err
}

// Close releases the archive reader and the underlying source. It is safe
// to call more than once; only the first call that performs the release
// can return an error.
func (s *EntryStream) Close() error {
	if s.state == stateExhausted || s.state == stateClosed {
		return nil
	}
	s.finish(stateClosed, nil)
	return s.closeErr
}

// All returns the remaining entries as a sequence. A non-nil error is
// yielded once, last. The stream is closed when the sequence ends,
// including when the loop body breaks early.
func (s *EntryStream) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.current, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(Entry{}, err)
		}
	}
}

func (s *EntryStream) finish(state streamState, err error) {
	s.state = state
	s.err = err
	if cerr := s.closer.Close(); cerr != nil {
		s.closeErr = ioError("closing "+s.name, cerr)
		if s.err == nil {
			s.err = s.closeErr
		}
	}
	s.logger.Debug("stream closed",
		zap.String("source", s.name),
		zap.Int("entries", s.produced),
		zap.Stringer("state", state),
	)
}
