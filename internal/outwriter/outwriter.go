// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteHistory prints the stock history series using the configured output format.
func (ow *OutWriter) WriteHistory(result schema.HistoryResult, cfg *contract.Config, duration time.Duration) error {
	return WriteHistoryResults(result, cfg, duration)
}

// WriteDashboard prints one dashboard refresh using the configured output format.
func (ow *OutWriter) WriteDashboard(d schema.Dashboard, cfg *contract.Config) error {
	return WriteDashboard(d, cfg)
}

// WriteSession prints the scraping status card using the configured output format.
func (ow *OutWriter) WriteSession(summary schema.SessionSummary, cfg *contract.Config) error {
	return WriteSessionSummary(summary, cfg)
}

// WriteChanges prints the stock changelog using the configured output format.
func (ow *OutWriter) WriteChanges(result schema.ChangesResult, cfg *contract.Config, duration time.Duration) error {
	return WriteChangesResults(result, cfg, duration)
}

// WriteStatus prints the store health check using the configured output format.
func (ow *OutWriter) WriteStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return WriteStoreStatus(status, cfg)
}
