// Package codectest holds shared assertions for codec implementations.
package codectest

import (
	"bytes"
	"io"
	"testing"

	"github.com/discochess/unpack/internal/codec"
)

// Payloads returns the inputs every codec is expected to round-trip.
func Payloads() map[string][]byte {
	return map[string][]byte{
		"empty":  {},
		"short":  []byte("Hello, World! This is test data for compression."),
		"large":  bytes.Repeat([]byte("ABCDEFGHIJ"), 10000),
		"binary": {0x00, 0xff, 0x1f, 0x8b, 0x42, 0x5a, 0x68, 0x00},
	}
}

// RoundTrip compresses data with c, decompresses the result and fails the
// test if the output differs from data.
func RoundTrip(t *testing.T, c codec.Codec, data []byte) {
	t.Helper()

	var compressed bytes.Buffer
	writer, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reader, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Errorf("round-trip mismatch: got %d bytes, want %d bytes", len(decompressed), len(data))
	}
}

// RunRoundTrips runs RoundTrip for every payload as a subtest.
func RunRoundTrips(t *testing.T, c codec.Codec) {
	t.Helper()
	for name, data := range Payloads() {
		t.Run(name, func(t *testing.T) {
			RoundTrip(t, c, data)
		})
	}
}
