package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_ComputesOnce(t *testing.T) {
	var calls atomic.Int32
	v := New(func() ([]byte, error) {
		calls.Add(1)
		return []byte("payload"), nil
	})

	require.False(t, v.Ready())

	for range 5 {
		got, err := v.Get()
		require.NoError(t, err)
		require.Equal(t, []byte("payload"), got)
	}

	require.True(t, v.Ready())
	require.Equal(t, int32(1), calls.Load())
}

func TestValue_ConcurrentGet(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	v := New(func() (*int, error) {
		calls.Add(1)
		<-release
		n := 42
		return &n, nil
	})

	const workers = 32
	results := make([]*int, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get()
			if err == nil {
				results[i] = got
			}
		}()
	}
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		// Every caller sees the same instance.
		require.Same(t, results[0], r)
	}
}

func TestValue_RetriesAfterFailure(t *testing.T) {
	errBoom := errors.New("boom")
	var calls atomic.Int32
	v := New(func() (string, error) {
		if calls.Add(1) == 1 {
			return "", errBoom
		}
		return "ok", nil
	})

	_, err := v.Get()
	require.ErrorIs(t, err, errBoom)
	require.False(t, v.Ready())

	got, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, "ok", got)

	_, err = v.Get()
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestValue_RecoversFromPanic(t *testing.T) {
	var calls atomic.Int32
	v := New(func() (int, error) {
		if calls.Add(1) == 1 {
			panic("producer exploded")
		}
		return 7, nil
	})

	require.Panics(t, func() { _, _ = v.Get() })
	require.False(t, v.Ready())

	got, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

func TestOf(t *testing.T) {
	v := Of("ready")
	require.True(t, v.Ready())

	got, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, "ready", got)
}
