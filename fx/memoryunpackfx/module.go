// Package memoryunpackfx provides an fx module for a reader backed by an
// in-memory store.
// Useful for testing.
package memoryunpackfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/unpack"
	"github.com/discochess/unpack/internal/stats"
	"github.com/discochess/unpack/internal/stats/logger"
	"github.com/discochess/unpack/internal/store/memstore"
)

// Module provides an in-memory *unpack.Reader for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryunpack",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newReader,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("unpack.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the reader.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided reader.
type Result struct {
	fx.Out

	Reader *unpack.Reader
}

func newReader(p Params) Result {
	reader := unpack.New(
		unpack.WithStore(p.Store),
		unpack.WithStats(p.Collector),
		unpack.WithLogger(p.Logger.Named("unpack")),
	)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return reader.Close()
		},
	})

	return Result{Reader: reader}
}
