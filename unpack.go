// Package unpack reads gzip, bzip2, tar+gzip and zip content through one
// entry point.
//
// Zip archives are buffered and decoded once, then served by name:
//
//	r := unpack.New()
//	z, err := r.FromZipFile("/path/to/archive.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	readme, err := z.EntryString("README.md")
//
// Tar+gzip archives are streamed entry by entry:
//
//	s, err := r.FromTarGzip(resp.Body).Stream()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for e, err := range s.All() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(e.Name, len(e.Content))
//	}
package unpack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/unpack/internal/lazy"
	"github.com/discochess/unpack/internal/stats"
	"github.com/discochess/unpack/internal/store"
)

// Reader creates archive and compressed-content views from byte buffers,
// files, open streams and store objects.
// A Reader is safe for concurrent use by multiple goroutines; the views it
// returns document their own guarantees.
type Reader struct {
	cfg    options
	closed atomic.Bool
}

// New creates a new Reader with the given options.
// If no options are provided, sensible defaults are used.
func New(opts ...Option) *Reader {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	r := &Reader{cfg: cfg}
	r.cfg.logger.Debug("reader initialized",
		zap.Bool("store", cfg.store != nil),
		zap.Int64("maxEntrySize", cfg.maxEntrySize),
		zap.Int("bufferSize", cfg.bufferSize),
	)
	return r
}

// Close closes the configured store. After Close, the From*Object methods
// return ErrClosed; views already created stay usable.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if r.cfg.store != nil {
		if err := r.cfg.store.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}
	return nil
}

// Store returns the configured store, or nil.
func (r *Reader) Store() store.Store {
	return r.cfg.store
}

// FromTarGzip returns a tar+gzip view over rc. The view owns rc and closes
// it when rc is an io.Closer: through the stream once one is opened, or
// through TarReader.Close if the view is dropped unread.
func (r *Reader) FromTarGzip(rc io.Reader) *TarReader {
	return r.tar(readerSource("reader", rc))
}

// FromTarGzipBytes returns a tar+gzip view over data.
func (r *Reader) FromTarGzipBytes(data []byte) *TarReader {
	return r.tar(bytesSource(data))
}

// FromTarGzipFile returns a tar+gzip view over the file at path.
// It returns ErrSourceNotFound if path does not exist.
func (r *Reader) FromTarGzipFile(path string) (*TarReader, error) {
	src, err := fileSource(path)
	if err != nil {
		return nil, err
	}
	return r.tar(src), nil
}

// FromTarGzipObject opens the object stored under key and returns a
// tar+gzip view streaming it. The object stays open until the view is
// streamed or closed.
func (r *Reader) FromTarGzipObject(ctx context.Context, key string) (*TarReader, error) {
	rc, err := r.openObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return r.tar(readerSource(key, rc)), nil
}

// FromZip returns a zip view over rc. The whole stream is buffered on first
// use; rc is closed afterwards when it is an io.Closer. Call
// ZipContent.Close to release rc if the view may never be used.
func (r *Reader) FromZip(rc io.Reader) *ZipContent {
	return r.zip(readerSource("reader", rc))
}

// FromZipBytes returns a zip view over data. data must not be modified
// while the view is in use.
func (r *Reader) FromZipBytes(data []byte) *ZipContent {
	r.opened("zip", "bytes")
	return newZipContent(lazy.Of(data), &r.cfg)
}

// FromZipFile returns a zip view over the file at path. The file is read
// on first use. It returns ErrSourceNotFound if path does not exist.
func (r *Reader) FromZipFile(path string) (*ZipContent, error) {
	src, err := fileSource(path)
	if err != nil {
		return nil, err
	}
	return r.zip(src), nil
}

// FromZipObject fetches the object stored under key and returns a zip view
// over its bytes.
func (r *Reader) FromZipObject(ctx context.Context, key string) (*ZipContent, error) {
	data, err := r.fetchObject(ctx, key)
	if err != nil {
		return nil, err
	}
	r.opened("zip", key)
	return newZipContent(lazy.Of(data), &r.cfg), nil
}

// FromGzip returns a gzip view over rc. The view owns rc; call
// CompressedReader.Close to release it if the view may never be read.
func (r *Reader) FromGzip(rc io.Reader) *CompressedReader {
	return r.compressed(readerSource("reader", rc), "gzip", gzipDecoder)
}

// FromGzipBytes returns a gzip view over data.
func (r *Reader) FromGzipBytes(data []byte) *CompressedReader {
	return r.compressed(bytesSource(data), "gzip", gzipDecoder)
}

// FromGzipFile returns a gzip view over the file at path.
// It returns ErrSourceNotFound if path does not exist.
func (r *Reader) FromGzipFile(path string) (*CompressedReader, error) {
	src, err := fileSource(path)
	if err != nil {
		return nil, err
	}
	return r.compressed(src, "gzip", gzipDecoder), nil
}

// FromGzipObject opens the object stored under key and returns a gzip view
// streaming it. The object stays open until the view is read or closed.
func (r *Reader) FromGzipObject(ctx context.Context, key string) (*CompressedReader, error) {
	rc, err := r.openObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return r.compressed(readerSource(key, rc), "gzip", gzipDecoder), nil
}

// FromBzip2 returns a view over a compressed stream whose format is
// detected from its leading bytes. Besides bzip2 it accepts gzip, zstd,
// lz4 and s2; anything else fails with ErrCodec on first read. The view
// owns rc, as with FromGzip.
func (r *Reader) FromBzip2(rc io.Reader) *CompressedReader {
	return r.compressed(readerSource("reader", rc), "bzip2", detectDecoder)
}

// FromBzip2File is FromBzip2 over the file at path.
// It returns ErrSourceNotFound if path does not exist.
func (r *Reader) FromBzip2File(path string) (*CompressedReader, error) {
	src, err := fileSource(path)
	if err != nil {
		return nil, err
	}
	return r.compressed(src, "bzip2", detectDecoder), nil
}

// FromCompressed returns a view over rc that detects the compression
// format from the leading bytes. The view owns rc, as with FromGzip.
func (r *Reader) FromCompressed(rc io.Reader) *CompressedReader {
	return r.compressed(readerSource("reader", rc), "detected", detectDecoder)
}

// FromCompressedBytes is FromCompressed over data.
func (r *Reader) FromCompressedBytes(data []byte) *CompressedReader {
	return r.compressed(bytesSource(data), "detected", detectDecoder)
}

// FromUncompressed returns a view over plain content read from rc.
// The view owns rc; UncompressedReader.Close releases it unread.
func (r *Reader) FromUncompressed(rc io.Reader) *UncompressedReader {
	r.opened("uncompressed", "reader")
	return &UncompressedReader{src: readerSource("reader", rc), cfg: r.cfg}
}

// FromUncompressedFile returns a view over the plain file at path.
// It returns ErrSourceNotFound if path does not exist.
func (r *Reader) FromUncompressedFile(path string) (*UncompressedReader, error) {
	src, err := fileSource(path)
	if err != nil {
		return nil, err
	}
	r.opened("uncompressed", path)
	return &UncompressedReader{src: src, cfg: r.cfg}, nil
}

func (r *Reader) tar(src *source) *TarReader {
	r.opened("tar+gzip", src.name)
	return newTarReader(src, r.cfg)
}

func (r *Reader) zip(src *source) *ZipContent {
	r.opened("zip", src.name)
	z := newZipContent(lazy.New(src.readAll), &r.cfg)
	z.release = src.release
	return z
}

func (r *Reader) compressed(src *source, format string, decoder decoderFunc) *CompressedReader {
	r.opened(format, src.name)
	return newCompressedReader(src, format, decoder, r.cfg)
}

func (r *Reader) opened(format, name string) {
	r.cfg.stats.IncCounter(stats.MetricArchivesOpened, 1)
	r.cfg.logger.Debug("view created",
		zap.String("format", format),
		zap.String("source", name),
	)
}

// openObject opens key in the configured store.
func (r *Reader) openObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if r.cfg.store == nil {
		return nil, ErrNoStore
	}

	r.cfg.stats.IncCounter(stats.MetricObjectFetches, 1)
	r.cfg.logger.Debug("fetching object", zap.String("key", key))

	rc, err := r.cfg.store.Open(ctx, key)
	if err != nil {
		return nil, openError(key, err)
	}
	return rc, nil
}

// fetchObject reads the whole object stored under key.
func (r *Reader) fetchObject(ctx context.Context, key string) ([]byte, error) {
	rc, err := r.openObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, ioError("reading object "+key, err)
	}
	return buf.Bytes(), nil
}
