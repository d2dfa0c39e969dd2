package zipcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

func buildZip(t *testing.T, files ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f[0])
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := w.Write([]byte(f[1])); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestEncodeDecode_SingleEntry(t *testing.T) {
	data, err := Encode("test.txt", strings.NewReader("test"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	entries, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != "test.txt" || string(entries[0].Content) != "test" {
		t.Errorf("entry = {%q, %q}, want {test.txt, test}", entries[0].Name, entries[0].Content)
	}
}

func TestDecode_PreservesOrder(t *testing.T) {
	data := buildZip(t, [2]string{"z", "last letter"}, [2]string{"a", "first letter"}, [2]string{"m", ""})

	entries, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "z,a,m" {
		t.Errorf("names = %s, want z,a,m", got)
	}
}

func TestDecode_SkipsDirectories(t *testing.T) {
	data := buildZip(t, [2]string{"dir/", ""}, [2]string{"dir/file", "x"})

	entries, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "dir/file" {
		t.Errorf("entries = %+v, want only dir/file", entries)
	}
}

func TestDecode_Empty(t *testing.T) {
	for name, data := range map[string][]byte{
		"no bytes":      nil,
		"empty archive": buildZip(t),
	} {
		t.Run(name, func(t *testing.T) {
			entries, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("got %d entries, want 0", len(entries))
			}
		})
	}
}

func TestDecode_InvalidData(t *testing.T) {
	if _, err := Decode([]byte("definitely not a zip archive")); err == nil {
		t.Error("Decode() expected error for invalid data, got nil")
	}
}

func TestDecode_MaxEntrySize(t *testing.T) {
	data := buildZip(t, [2]string{"big", strings.Repeat("x", 100)})

	_, err := Decode(data, WithMaxEntrySize(10))
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Errorf("Decode() error = %v, want %v", err, ErrEntryTooLarge)
	}
}

func TestDecode_InflatedSizeDoesNotPreallocate(t *testing.T) {
	data := buildZip(t, [2]string{"a.txt", "alpha"})
	cd := bytes.Index(data, []byte{'P', 'K', 0x01, 0x02})
	if cd < 0 {
		t.Fatal("central directory header not found")
	}
	binary.LittleEndian.PutUint32(data[cd+24:], 0x70000000)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Decode(data)
	runtime.ReadMemStats(&after)

	if err == nil {
		t.Fatal("Decode() error = nil, want a size mismatch")
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc > 64<<20 {
		t.Errorf("Decode() allocated %d bytes for a 5-byte entry", alloc)
	}
}
