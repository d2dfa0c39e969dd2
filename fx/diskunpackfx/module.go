// Package diskunpackfx provides an fx module for a reader whose object
// sources live in a local directory.
package diskunpackfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/unpack"
	"github.com/discochess/unpack/internal/codec/noopcodec"
	"github.com/discochess/unpack/internal/stats"
	"github.com/discochess/unpack/internal/stats/logger"
	"github.com/discochess/unpack/internal/store/cachedstore"
	"github.com/discochess/unpack/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/unpack/internal/store/cachedstore/memory"
	"github.com/discochess/unpack/internal/store/diskstore"
)

// Config holds configuration for the disk-backed reader.
type Config struct {
	// DataDir is the directory holding the archives, addressed by
	// slash-separated keys relative to it.
	DataDir string

	// CacheSize is the number of archives to cache in memory.
	// Default is 16.
	CacheSize int

	// CacheBytes caps the summed size of cached archives. Archives larger
	// than the cap are read from disk every time. Zero means no byte cap.
	CacheBytes int64

	// MaxEntrySize caps the size of a single decoded entry.
	// Zero keeps the reader default.
	MaxEntrySize int64

	// IgnoreErrors drops undecodable tar entries instead of aborting.
	IgnoreErrors bool
}

// Module provides a disk-backed *unpack.Reader.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("diskunpack",
	fx.Provide(
		newStatsCollector,
		newReader,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("unpack.stats"))
}

// Params holds dependencies for creating the reader.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided reader.
type Result struct {
	fx.Out

	Reader *unpack.Reader
}

func newReader(p Params) (Result, error) {
	cacheSize := p.Config.CacheSize
	if cacheSize <= 0 {
		cacheSize = 16
	}

	baseStore, err := diskstore.New(p.Config.DataDir, noopcodec.New())
	if err != nil {
		return Result{}, err
	}

	lruStrategy, err := lru.New(cacheSize)
	if err != nil {
		return Result{}, err
	}

	st := cachedstore.New(baseStore, memory.New(lruStrategy, p.Collector, memory.WithMaxBytes(p.Config.CacheBytes)))

	opts := []unpack.Option{
		unpack.WithStore(st),
		unpack.WithStats(p.Collector),
		unpack.WithLogger(p.Logger.Named("unpack")),
		unpack.WithMaxEntrySize(p.Config.MaxEntrySize),
	}
	if p.Config.IgnoreErrors {
		opts = append(opts, unpack.WithErrorHandler(unpack.LogErrors(p.Logger.Named("unpack"))))
	}
	reader := unpack.New(opts...)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return reader.Close()
		},
	})

	return Result{Reader: reader}, nil
}
