// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Reader metrics.
	MetricArchivesOpened = "unpack_archives_opened_total"
	MetricEntriesRead    = "unpack_entries_read_total"
	MetricEntryErrors    = "unpack_entry_errors_total"
	MetricEntryBytes     = "unpack_entry_bytes"
	MetricDecodes        = "unpack_decodes_total"
	MetricObjectFetches  = "unpack_object_fetches_total"

	// Cache metrics.
	MetricCacheHits     = "unpack_cache_hits_total"
	MetricCacheMisses   = "unpack_cache_misses_total"
	MetricCacheRejected = "unpack_cache_rejected_total"
	MetricCacheSize     = "unpack_cache_size"
	MetricCacheBytes    = "unpack_cache_bytes"
)

var help = map[string]string{
	MetricArchivesOpened: "Archive and compressed views created by the reader.",
	MetricEntriesRead:    "Entries produced by archive views.",
	MetricEntryErrors:    "Per-entry failures passed to the error handler.",
	MetricEntryBytes:     "Size in bytes of produced entries.",
	MetricDecodes:        "Full decodes of buffered archives and compressed streams.",
	MetricObjectFetches:  "Objects fetched from the configured store.",
	MetricCacheHits:      "Object cache hits.",
	MetricCacheMisses:    "Object cache misses.",
	MetricCacheRejected:  "Objects too large for the cache byte budget.",
	MetricCacheSize:      "Objects held in the object cache.",
	MetricCacheBytes:     "Bytes held in the object cache.",
}

// Help returns the description of a known metric, or name itself.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
