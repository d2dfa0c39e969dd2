// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/unpack/internal/stats"
)

// DefaultByteBuckets suit entry sizes from a few bytes to tens of megabytes.
var DefaultByteBuckets = prometheus.ExponentialBuckets(64, 4, 10)

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	registry  prometheus.Registerer
	namespace string
	buckets   []float64

	counters   family[prometheus.Counter]
	gauges     family[prometheus.Gauge]
	histograms family[prometheus.Histogram]
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithBuckets sets the histogram buckets. Default is DefaultByteBuckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Collector) { c.buckets = buckets }
}

// WithNamespace prefixes every metric name with namespace and "_".
func WithNamespace(namespace string) Option {
	return func(c *Collector) { c.namespace = namespace }
}

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry: registry,
		buckets:  DefaultByteBuckets,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, &c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      name,
			Help:      stats.Help(name),
		})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, &c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      name,
			Help:      stats.Help(name),
		})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, &c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      name,
			Help:      stats.Help(name),
			Buckets:   c.buckets,
		})
	})
	histogram.Observe(value)
}

// family holds the metrics of one kind, keyed by name.
type family[M prometheus.Collector] struct {
	mu      sync.RWMutex
	metrics map[string]M
}

func getOrCreate[M prometheus.Collector](c *Collector, f *family[M], name string, create func() M) M {
	f.mu.RLock()
	m, ok := f.metrics[name]
	f.mu.RUnlock()
	if ok {
		return m
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock.
	if m, ok = f.metrics[name]; ok {
		return m
	}
	if f.metrics == nil {
		f.metrics = make(map[string]M)
	}

	m = create()
	if err := c.registry.Register(m); err != nil {
		// Reuse a metric registered earlier under the same name.
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; it still counts.
	}
	f.metrics[name] = m
	return m
}
