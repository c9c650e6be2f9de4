package core

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFrom_FallsBackToDiscard(t *testing.T) {
	logger := loggerFrom(context.Background())
	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

// TestLoggerFrom_ConcurrentAccess tests that the attached logger can be read from many goroutines.
func TestLoggerFrom_ConcurrentAccess(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			assert.Same(t, logger, loggerFrom(ctx))
		})
	}
	wg.Wait()
}
