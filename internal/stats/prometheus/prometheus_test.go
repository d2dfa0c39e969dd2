package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/unpack/internal/stats"
)

// gather returns the gathered metric family called name, or nil.
func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestNew_Registry(t *testing.T) {
	if c := New(nil); c.registry != prometheus.DefaultRegisterer {
		t.Error("New(nil) should use the default registerer")
	}
	reg := prometheus.NewRegistry()
	if c := New(reg); c.registry != reg {
		t.Error("New(reg) should use reg")
	}
}

func TestCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricEntriesRead, 5)
	c.IncCounter(stats.MetricEntriesRead, 3)
	c.SetGauge(stats.MetricCacheSize, 7)
	c.SetGauge(stats.MetricCacheSize, 4)
	for _, size := range []float64{10, 1000, 100000} {
		c.ObserveHistogram(stats.MetricEntryBytes, size)
	}

	tests := []struct {
		name  string
		value func(*dto.Metric) float64
		want  float64
	}{
		{stats.MetricEntriesRead, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() }, 8},
		{stats.MetricCacheSize, func(m *dto.Metric) float64 { return m.GetGauge().GetValue() }, 4},
		{stats.MetricEntryBytes, func(m *dto.Metric) float64 { return float64(m.GetHistogram().GetSampleCount()) }, 3},
	}
	for _, tt := range tests {
		f := gather(t, reg, tt.name)
		if f == nil {
			t.Errorf("%s not registered", tt.name)
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Errorf("%s has %d series, want 1", tt.name, len(f.GetMetric()))
			continue
		}
		if got := tt.value(f.GetMetric()[0]); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
		if got := f.GetHelp(); got != stats.Help(tt.name) {
			t.Errorf("%s help = %q, want %q", tt.name, got, stats.Help(tt.name))
		}
	}
}

func TestCollector_ConcurrentFirstUse(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				c.IncCounter(stats.MetricDecodes, 1)
				c.ObserveHistogram(stats.MetricEntryBytes, 64)
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, stats.MetricDecodes).GetMetric()[0].GetCounter().GetValue(); got != 400 {
		t.Errorf("decodes = %v, want 400", got)
	}
	if got := gather(t, reg, stats.MetricEntryBytes).GetMetric()[0].GetHistogram().GetSampleCount(); got != 400 {
		t.Errorf("entry bytes samples = %v, want 400", got)
	}
}

func TestCollector_SharesRegisteredMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.IncCounter(stats.MetricObjectFetches, 2)
	second.IncCounter(stats.MetricObjectFetches, 3)

	f := gather(t, reg, stats.MetricObjectFetches)
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 5 {
		t.Errorf("object fetches = %v, want 5", got)
	}
}

func TestCollector_Options(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, WithNamespace("app"), WithBuckets([]float64{1, 10}))

	c.ObserveHistogram(stats.MetricEntryBytes, 5)

	f := gather(t, reg, "app_"+stats.MetricEntryBytes)
	if f == nil {
		t.Fatalf("app_%s not registered", stats.MetricEntryBytes)
	}
	buckets := f.GetMetric()[0].GetHistogram().GetBucket()
	if len(buckets) < 2 || buckets[0].GetUpperBound() != 1 || buckets[1].GetUpperBound() != 10 {
		t.Errorf("buckets = %v, want upper bounds 1 and 10", buckets)
	}
}
