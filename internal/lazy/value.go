// Package lazy provides a compute-once value cell.
package lazy

import "sync"

type state uint8

const (
	stateEmpty state = iota
	stateComputing
	stateReady
)

// Value holds the result of a producer that runs at most once successfully.
// A producer failure leaves the cell empty, so the next Get runs it again.
// A Value is safe for concurrent use by multiple goroutines.
type Value[T any] struct {
	mu       sync.Mutex
	state    state
	producer func() (T, error)
	value    T
}

// New returns an empty Value that will be filled by producer on first Get.
func New[T any](producer func() (T, error)) *Value[T] {
	return &Value[T]{producer: producer}
}

// Of returns a Value that already holds v.
func Of[T any](v T) *Value[T] {
	return &Value[T]{state: stateReady, value: v}
}

// Get returns the cached value, running the producer if nothing is cached yet.
// Concurrent callers block until the single in-flight production finishes and
// then observe its result.
func (v *Value[T]) Get() (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == stateReady {
		return v.value, nil
	}

	v.state = stateComputing
	// Reset on panic so the cell is not stuck in the computing state.
	defer func() {
		if v.state == stateComputing {
			v.state = stateEmpty
		}
	}()

	val, err := v.producer()
	if err != nil {
		var zero T
		return zero, err
	}

	v.value = val
	v.state = stateReady
	v.producer = nil // drop whatever the producer captured
	return val, nil
}

// Ready reports whether a value has been computed.
func (v *Value[T]) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == stateReady
}
