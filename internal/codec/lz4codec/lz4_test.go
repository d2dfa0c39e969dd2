package lz4codec

import (
	"bytes"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/codectest"
)

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "lz4" {
		t.Errorf("Extension() = %q, want %q", got, "lz4")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codectest.RunRoundTrips(t, New())
}

func TestCodec_RoundTrip_HighCompression(t *testing.T) {
	codectest.RunRoundTrips(t, New(WithLevel(lz4.Level9)))
}

func TestCodec_FrameStartsWithMagic(t *testing.T) {
	encoded, err := codec.Encode(New(), []byte("frame"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.HasPrefix(encoded, Magic) {
		t.Errorf("encoded prefix = %x, want %x", encoded[:4], Magic)
	}
}

func TestCodec_Decode_InvalidData(t *testing.T) {
	_, err := codec.Decode(New(), bytes.NewReader([]byte("not lz4 data")))
	if err == nil {
		t.Error("Decode() expected error for invalid lz4 data, got nil")
	}
}
