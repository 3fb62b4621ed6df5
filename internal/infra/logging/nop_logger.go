package logging

import "log/slog"

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}
