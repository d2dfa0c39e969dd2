package unpack

import (
	"go.uber.org/zap"

	"github.com/discochess/unpack/internal/codec/tarcodec"
	"github.com/discochess/unpack/internal/stats"
	"github.com/discochess/unpack/internal/store"
)

// DefaultBufferSize is the read buffer placed in front of streamed sources.
const DefaultBufferSize = 32 << 10

// Option configures a Reader.
type Option interface {
	apply(*options)
}

// options holds the reader configuration.
type options struct {
	store        store.Store
	handler      ErrorHandler
	maxEntrySize int64
	bufferSize   int
	stats        stats.Collector
	logger       *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		handler:      RethrowErrors,
		maxEntrySize: tarcodec.DefaultMaxEntrySize,
		bufferSize:   DefaultBufferSize,
		stats:        stats.Discard,
		logger:       zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the storage backend used by the From*Object methods.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithErrorHandler sets the policy for entries that fail to decode.
// If not set, RethrowErrors is used.
func WithErrorHandler(h ErrorHandler) Option {
	return optionFunc(func(o *options) {
		if h != nil {
			o.handler = h
		}
	})
}

// WithIgnoreErrors drops entries that fail to decode.
func WithIgnoreErrors() Option {
	return WithErrorHandler(IgnoreErrors)
}

// WithErrorFunc sets a function as the error handler.
func WithErrorFunc(fn func(label string, err error) error) Option {
	if fn == nil {
		return WithErrorHandler(nil)
	}
	return WithErrorHandler(ErrorHandlerFunc(fn))
}

// WithMaxEntrySize sets the largest entry, in bytes, that is decoded into
// memory. Default is math.MaxInt32.
func WithMaxEntrySize(n int64) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.maxEntrySize = n
		}
	})
}

// WithBufferSize sets the read buffer size for streamed sources.
// Default is 32 KiB.
func WithBufferSize(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}
