package unpack

import (
	"archive/tar"
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name string
	body []byte
}

func file(name, body string) testFile {
	return testFile{name: name, body: []byte(body)}
}

func buildTar(t testing.TB, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.name,
			Mode:     0o644,
			Size:     int64(len(f.body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildTarGz(t testing.TB, files ...testFile) []byte {
	t.Helper()
	return gzipBytes(t, buildTar(t, files...))
}

// trackingSource counts bytes read and Close calls, and can fail reads
// after a number of bytes.
type trackingSource struct {
	r       io.Reader
	read    atomic.Int64
	closes  atomic.Int32
	failAt  int64
	failErr error
}

func newTrackingSource(data []byte) *trackingSource {
	return &trackingSource{r: bytes.NewReader(data), failAt: -1}
}

func (s *trackingSource) Read(p []byte) (int, error) {
	if s.failAt >= 0 {
		remaining := s.failAt - s.read.Load()
		if remaining <= 0 {
			return 0, s.failErr
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := s.r.Read(p)
	s.read.Add(int64(n))
	return n, err
}

func (s *trackingSource) Close() error {
	s.closes.Add(1)
	return nil
}

// countingCollector records counter totals by metric name.
type countingCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	observed map[string]int
}

func newCountingCollector() *countingCollector {
	return &countingCollector{
		counters: make(map[string]int64),
		observed: make(map[string]int),
	}
}

func (c *countingCollector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

func (c *countingCollector) SetGauge(string, int64) {}

func (c *countingCollector) ObserveHistogram(name string, _ float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observed[name]++
}

func (c *countingCollector) counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}
