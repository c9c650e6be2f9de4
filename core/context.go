package core

import (
	"context"
	"log/slog"

	"github.com/huangsam/stockpulse/internal/contract"
)

// Context keys for refresh options
type contextKey string

const loggerKey contextKey = "logger"

// WithLogger attaches the logger that core operations report to.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// loggerFrom returns the logger from context, or one that discards everything
func loggerFrom(ctx context.Context) *slog.Logger {
	val := ctx.Value(loggerKey)
	if logger, ok := val.(*slog.Logger); ok && logger != nil {
		return logger
	}
	return contract.DiscardLogger()
}
