package logger

import (
	"io"
	"log/slog"
)

// NewTestHandler returns a handler that discards output, for wiring into
// components under test that require a logger.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}
