package diskstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/noopcodec"
	"github.com/discochess/unpack/internal/codec/zstdcodec"
	"github.com/discochess/unpack/internal/store"
)

func readObject(t *testing.T, s *Store, key string) string {
	t.Helper()
	rc, err := s.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestStore_Open(t *testing.T) {
	dir := t.TempDir()

	// Create object file manually.
	objDir := filepath.Join(dir, "archives")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	data := []byte("archive data")
	if err := os.WriteFile(filepath.Join(objDir, "a.zip"), data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if got := readObject(t, s, "archives/a.zip"); got != string(data) {
		t.Errorf("Open() content = %q, want %q", got, data)
	}
}

func TestStore_PutOpen_WithCodec(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Put(context.Background(), "nested/report.tar.gz", []byte("payload")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "nested", "report.tar.gz.zst"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	decoded, err := codec.Decode(zstdcodec.New(), bytes.NewReader(raw))
	if err != nil || string(decoded) != "payload" {
		t.Errorf("stored object decodes to %q, %v; want payload", decoded, err)
	}

	if got := readObject(t, s, "nested/report.tar.gz"); got != "payload" {
		t.Errorf("Open() content = %q, want %q", got, "payload")
	}
}

func TestStore_OpenNotFound(t *testing.T) {
	s, err := New(t.TempDir(), noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	_, err = s.Open(context.Background(), "missing.zip")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestStore_OpenInvalidKey(t *testing.T) {
	s, err := New(t.TempDir(), noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range []string{"../outside", "/etc/passwd", ""} {
		if _, err := s.Open(context.Background(), key); !errors.Is(err, store.ErrInvalidKey) {
			t.Errorf("Open(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestStore_OpenCanceled(t *testing.T) {
	s, err := New(t.TempDir(), noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Open(ctx, "a.zip"); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path", noopcodec.New())
	if err == nil {
		t.Error("New() with invalid path should return error")
	}
}

func TestNew_NotDirectory(t *testing.T) {
	// Create a file, not a directory.
	f, err := os.CreateTemp(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = New(f.Name(), noopcodec.New())
	if err == nil {
		t.Error("New() with file (not directory) should return error")
	}
}
