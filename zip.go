package unpack

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"go.uber.org/zap"

	"github.com/discochess/unpack/internal/codec/zipcodec"
	"github.com/discochess/unpack/internal/lazy"
	"github.com/discochess/unpack/internal/stats"
)

// ZipContent is a random-access view over a zip archive. The raw archive
// bytes are read on first use and decoded into entries at most once; every
// later lookup is served from the decoded mapping.
// A ZipContent is safe for concurrent use by multiple goroutines.
type ZipContent struct {
	raw     *lazy.Value[[]byte]
	decoded *lazy.Value[*EntryMap]

	maxEntrySize int64
	stats        stats.Collector
	logger       *zap.Logger

	// release closes the unread source behind raw, if any.
	release func() error
}

// Compile-time check that ZipContent implements io.WriterTo.
var _ io.WriterTo = (*ZipContent)(nil)

func newZipContent(raw *lazy.Value[[]byte], cfg *options) *ZipContent {
	z := &ZipContent{
		raw:          raw,
		maxEntrySize: cfg.maxEntrySize,
		stats:        cfg.stats,
		logger:       cfg.logger,
	}
	z.decoded = lazy.New(z.decode)
	return z
}

func (z *ZipContent) decode() (*EntryMap, error) {
	raw, err := z.raw.Get()
	if err != nil {
		return nil, err
	}

	entries, err := zipcodec.Decode(raw, zipcodec.WithMaxEntrySize(z.maxEntrySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	m := NewEntryMap(len(entries))
	for _, e := range entries {
		m.Set(e.Name, e.Content)
		z.stats.ObserveHistogram(stats.MetricEntryBytes, float64(len(e.Content)))
	}
	z.stats.IncCounter(stats.MetricDecodes, 1)
	z.stats.IncCounter(stats.MetricEntriesRead, int64(len(entries)))
	z.logger.Debug("zip decoded",
		zap.Int("archiveBytes", len(raw)),
		zap.Int("entries", m.Len()),
	)
	return m, nil
}

// Close releases a reader-backed source that has not been buffered yet.
// After that, every accessor fails with ErrConsumed. Close does nothing once
// the archive has been read, or for byte and file sources.
func (z *ZipContent) Close() error {
	if z.release == nil {
		return nil
	}
	return z.release()
}

// Bytes returns the raw archive bytes. The slice must not be modified.
func (z *ZipContent) Bytes() ([]byte, error) {
	return z.raw.Get()
}

// Reader returns a reader over the raw archive bytes.
func (z *ZipContent) Reader() (io.Reader, error) {
	raw, err := z.raw.Get()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// WriteTo writes the raw archive bytes to w unchanged.
func (z *ZipContent) WriteTo(w io.Writer) (int64, error) {
	raw, err := z.raw.Get()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(raw)
	if err != nil {
		return int64(n), ioError("writing zip", err)
	}
	return int64(n), nil
}

// WriteFile writes the raw archive bytes to path and returns z for chaining.
func (z *ZipContent) WriteFile(path string) (*ZipContent, error) {
	raw, err := z.raw.Get()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, ioError("writing zip", err)
	}
	return z, nil
}

// Entry returns the content of the named entry, or empty bytes if the
// archive has no such entry. Use Has to tell the two apart.
func (z *ZipContent) Entry(name string) ([]byte, error) {
	m, err := z.decoded.Get()
	if err != nil {
		return nil, err
	}
	if content, ok := m.Get(name); ok {
		return content, nil
	}
	return []byte{}, nil
}

// EntryString returns the named entry as UTF-8 text.
func (z *ZipContent) EntryString(name string) (string, error) {
	content, err := z.Entry(name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// EntryReader returns a reader over the named entry.
func (z *ZipContent) EntryReader(name string) (io.Reader, error) {
	content, err := z.Entry(name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(content), nil
}

// Has reports whether the archive contains the named entry.
func (z *ZipContent) Has(name string) (bool, error) {
	m, err := z.decoded.Get()
	if err != nil {
		return false, err
	}
	return m.Has(name), nil
}

// Entries returns the archive entries in archive order. Each call returns a
// fresh sequence over the same decoded mapping.
func (z *ZipContent) Entries() (iter.Seq[Entry], error) {
	m, err := z.decoded.Get()
	if err != nil {
		return nil, err
	}
	return m.All(), nil
}

// ToContainer returns a snapshot of the decoded entries for repeated
// random access. Mutating the snapshot does not affect z.
func (z *ZipContent) ToContainer() (*EntryMap, error) {
	m, err := z.decoded.Get()
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}
