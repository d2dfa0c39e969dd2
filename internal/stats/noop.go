package stats

// Noop is a no-op collector that discards all metrics.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = (*Noop)(nil)

// Discard is a shared no-op collector.
var Discard Collector = Noop{}

// NewNoop creates a new no-op collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) IncCounter(string, int64)         {}
func (Noop) SetGauge(string, int64)           {}
func (Noop) ObserveHistogram(string, float64) {}
