package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"archive.zip", false},
		{"nested/dir/archive.tar.gz", false},
		{"", true},
		{"/absolute", true},
		{"..", true},
		{"../escape", true},
		{"a/../b", true},
		{"a//b", true},
		{"trailing/", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey(%q) error = %v, want ErrInvalidKey", tt.key, err)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	if got := ObjectName("a.tar", "zst"); got != "a.tar.zst" {
		t.Errorf("ObjectName() = %q, want %q", got, "a.tar.zst")
	}
	if got := ObjectName("a.tar", ""); got != "a.tar" {
		t.Errorf("ObjectName() = %q, want %q", got, "a.tar")
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
	}
	for _, tt := range tests {
		if got := NormalizePrefix(tt.input); got != tt.want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type staticStore map[string][]byte

func (s staticStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s staticStore) Close() error { return nil }

func TestReadAll(t *testing.T) {
	s := staticStore{"k": []byte("value")}

	got, err := ReadAll(context.Background(), s, "k")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "value" {
		t.Errorf("ReadAll() = %q, want %q", got, "value")
	}

	if _, err := ReadAll(context.Background(), s, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadAll() error = %v, want ErrNotFound", err)
	}
}
