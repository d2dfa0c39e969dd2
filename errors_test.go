package unpack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/unpack/internal/store"
)

func TestEntryDecodeError(t *testing.T) {
	cause := errors.New("bad header")
	err := error(&EntryDecodeError{Label: "entry 2", Err: cause})

	require.ErrorIs(t, err, ErrEntryDecode)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrCodec)
	require.Equal(t, "unpack: decoding entry 2: bad header", err.Error())

	wrapped := fmt.Errorf("stream: %w", err)
	var target *EntryDecodeError
	require.ErrorAs(t, wrapped, &target)
	require.Equal(t, "entry 2", target.Label)
}

func TestOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing file", err: fs.ErrNotExist, want: ErrSourceNotFound},
		{name: "missing object", err: store.ErrNotFound, want: ErrSourceNotFound},
		{name: "permission", err: fs.ErrPermission, want: ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := openError("thing", tt.err)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

type errReadCloser struct {
	err error
}

func (r errReadCloser) Read([]byte) (int, error) { return 0, r.err }
func (r errReadCloser) Close() error             { return nil }

func TestTrackedSource_Classify(t *testing.T) {
	decodeErr := errors.New("flate: corrupt input")

	clean := &trackedSource{ReadCloser: errReadCloser{err: io.EOF}}
	_, _ = clean.Read(make([]byte, 1))
	err := clean.classify("reading", decodeErr)
	require.ErrorIs(t, err, ErrCodec)
	require.NotErrorIs(t, err, ErrIO)

	srcErr := errors.New("connection reset")
	failed := &trackedSource{ReadCloser: errReadCloser{err: srcErr}}
	_, _ = failed.Read(make([]byte, 1))
	err = failed.classify("reading", decodeErr)
	require.ErrorIs(t, err, ErrIO)
	require.NotErrorIs(t, err, ErrCodec)

	// Already classified errors pass through.
	already := fmt.Errorf("%w: x", ErrCodec)
	require.Equal(t, already, failed.classify("reading", already))
	require.NoError(t, clean.classify("reading", nil))
}

func TestHandlers(t *testing.T) {
	err := &EntryDecodeError{Label: "x", Err: errors.New("bad")}

	require.Equal(t, error(err), RethrowErrors.HandleError("x", err))
	require.NoError(t, IgnoreErrors.HandleError("x", err))

	core, logs := observer.New(zapcore.WarnLevel)
	require.NoError(t, LogErrors(zap.New(core)).HandleError("x", err))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, zapcore.WarnLevel, entry.Level)
	require.Equal(t, "x", entry.ContextMap()["label"])

	require.NoError(t, LogErrors(nil).HandleError("x", err))
}
