package unpack

import (
	"bytes"
	"io"

	"go.uber.org/zap"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/detect"
	"github.com/discochess/unpack/internal/codec/gzipcodec"
	"github.com/discochess/unpack/internal/codec/zipcodec"
	"github.com/discochess/unpack/internal/lazy"
	"github.com/discochess/unpack/internal/stats"
)

// decoderFunc wraps a buffered raw stream with a decompressor.
type decoderFunc func(r io.Reader) (io.ReadCloser, error)

func gzipDecoder(r io.Reader) (io.ReadCloser, error) {
	return gzipcodec.New().Reader(r)
}

func detectDecoder(r io.Reader) (io.ReadCloser, error) {
	rc, _, err := detect.NewReader(r)
	return rc, err
}

// CompressedReader is a view over a single compressed stream. The decoded
// bytes are produced at most once; until then Reader streams the decoder
// output directly.
// A CompressedReader is safe for concurrent use by multiple goroutines.
type CompressedReader struct {
	src     *source
	format  string
	decoder decoderFunc
	data    *lazy.Value[[]byte]
	cfg     options
}

func newCompressedReader(src *source, format string, decoder decoderFunc, cfg options) *CompressedReader {
	c := &CompressedReader{
		src:     src,
		format:  format,
		decoder: decoder,
		cfg:     cfg,
	}
	c.data = lazy.New(c.decodeAll)
	return c
}

// Reader returns the decompressed content. Before Bytes has succeeded this
// is a live decoding stream over the source; afterwards it reads the cached
// bytes. The caller must close the result.
func (c *CompressedReader) Reader() (io.ReadCloser, error) {
	if c.data.Ready() {
		data, err := c.data.Get()
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return c.openStream()
}

// Close releases a reader-backed source that was never read. It does not
// close streams already returned by Reader.
func (c *CompressedReader) Close() error {
	return c.src.release()
}

// Bytes returns the fully decompressed content. The slice must not be
// modified.
func (c *CompressedReader) Bytes() ([]byte, error) {
	return c.data.Get()
}

func (c *CompressedReader) decodeAll() ([]byte, error) {
	rc, err := c.openStream()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	c.cfg.stats.IncCounter(stats.MetricDecodes, 1)
	c.cfg.logger.Debug("stream decoded",
		zap.String("source", c.src.name),
		zap.String("format", c.format),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func (c *CompressedReader) openStream() (io.ReadCloser, error) {
	tracked, buffered, err := c.src.openTracked(c.cfg.bufferSize)
	if err != nil {
		return nil, err
	}
	dec, err := c.decoder(buffered)
	if err != nil {
		tracked.Close()
		return nil, tracked.classify("opening "+c.format+" stream", err)
	}
	return &classifyingReader{
		ReadCloser: codec.CloseWith(dec, tracked),
		src:        tracked,
		op:         "reading " + c.format + " stream",
	}, nil
}

// classifyingReader maps decoder read failures to ErrCodec or ErrIO.
type classifyingReader struct {
	io.ReadCloser
	src *trackedSource
	op  string
}

func (r *classifyingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		err = r.src.classify(r.op, err)
	}
	return n, err
}

// UncompressedReader is a view over plain bytes that can be packed into a
// single-entry zip archive.
type UncompressedReader struct {
	src *source
	cfg options
}

// ToZip returns a zip view holding the source as one entry named
// entryName. The archive is built on first use and the source is closed
// once it has been read.
func (u *UncompressedReader) ToZip(entryName string) *ZipContent {
	raw := lazy.New(func() ([]byte, error) {
		rc, err := u.src.open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := zipcodec.Encode(entryName, rc)
		if err != nil {
			return nil, ioError("building zip from "+u.src.name, err)
		}
		return data, nil
	})
	z := newZipContent(raw, &u.cfg)
	z.release = u.src.release
	return z
}

// Close releases a reader-backed source that was never read.
func (u *UncompressedReader) Close() error {
	return u.src.release()
}
