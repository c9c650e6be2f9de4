package contract

import (
	"io"
	"log/slog"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewLogger builds the process logger. Debug lowers the level to slog.LevelDebug.
func NewLogger(w io.Writer, debug bool, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if format == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "stockpulse")
}

// DiscardLogger returns a logger that drops everything. Tests and the MCP server use it.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
