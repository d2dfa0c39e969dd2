package unpack

import "go.uber.org/zap"

// ErrorHandler decides what happens when one entry of a streaming archive
// fails to decode. HandleError receives the entry label and an
// *EntryDecodeError. Returning a non-nil error aborts the stream with that
// error; returning nil drops the entry and continues with the next one.
type ErrorHandler interface {
	HandleError(label string, err error) error
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(label string, err error) error

// Compile-time check that ErrorHandlerFunc implements ErrorHandler.
var _ ErrorHandler = ErrorHandlerFunc(nil)

// HandleError calls f(label, err).
func (f ErrorHandlerFunc) HandleError(label string, err error) error {
	return f(label, err)
}

// Built-in error handlers.
var (
	// RethrowErrors aborts the stream on the first failing entry.
	RethrowErrors ErrorHandler = ErrorHandlerFunc(func(_ string, err error) error {
		return err
	})

	// IgnoreErrors silently drops failing entries.
	IgnoreErrors ErrorHandler = ErrorHandlerFunc(func(string, error) error {
		return nil
	})
)

// LogErrors returns a handler that logs failing entries at Warn level and
// drops them.
func LogErrors(logger *zap.Logger) ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ErrorHandlerFunc(func(label string, err error) error {
		logger.Warn("dropping undecodable entry",
			zap.String("label", label),
			zap.Error(err),
		)
		return nil
	})
}
