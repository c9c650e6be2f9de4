// Package core has the stock history pipeline, the dashboard refresh and the
// entry points the commands call.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/outwriter"
	"github.com/huangsam/stockpulse/schema"
)

// ExecutorFunc defines the function signature of every command entry point.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error

// ErrExportPath is returned when an export has nowhere to write.
var ErrExportPath = errors.New("export requires --output-file as the path prefix of the parquet files")

// sectionError turns an error outcome into a Go error after the section was printed.
func sectionError(outcome schema.Outcome, diagnostic string) error {
	if outcome != schema.OutcomeError {
		return nil
	}
	if diagnostic == "" {
		diagnostic = "unavailable"
	}
	return errors.New(diagnostic)
}

// ExecuteHistory builds the stock history series and prints it.
// It serves as the main entry point for the 'history' command.
func ExecuteHistory(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	start := time.Now()
	result := StockHistory(ctx, store, cfg.Strategy, cfg.Pushdown)
	duration := time.Since(start)
	if err := outwriter.NewOutWriter().WriteHistory(result, cfg, duration); err != nil {
		return err
	}
	return sectionError(result.Outcome, result.Diagnostic)
}

// ExecuteDashboard runs one refresh pass and prints every section.
func ExecuteDashboard(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	d := Refresh(ctx, store, OptionsFromConfig(cfg))
	if err := outwriter.NewOutWriter().WriteDashboard(d, cfg); err != nil {
		return err
	}
	if !d.Catalog.Connected {
		return sectionError(d.Catalog.Outcome, d.Catalog.Diagnostic)
	}
	return nil
}

// ExecuteSession prints the scraping status card of the most recent session.
func ExecuteSession(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	summary := LatestSessionSummary(ctx, store)
	if err := outwriter.NewOutWriter().WriteSession(summary, cfg); err != nil {
		return err
	}
	return sectionError(summary.Outcome, summary.Diagnostic)
}

// ExecuteChanges compares the two latest completed sessions and prints the changelog.
func ExecuteChanges(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	start := time.Now()
	result := StockChanges(ctx, store, cfg.ChangesLimit)
	duration := time.Since(start)
	if err := outwriter.NewOutWriter().WriteChanges(result, cfg, duration); err != nil {
		return err
	}
	return sectionError(result.Outcome, result.Diagnostic)
}

// ExecuteStoreStatus prints server, schema and table details of the store.
// The status is printed even when the check failed part way.
func ExecuteStoreStatus(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	status, statusErr := store.Status(ctx)
	if err := outwriter.NewOutWriter().WriteStatus(status, cfg); err != nil {
		return err
	}
	if statusErr != nil {
		return fmt.Errorf("store status is incomplete: %w", statusErr)
	}
	return nil
}

// ExecuteExport writes the stock history series to parquet files.
// Nothing is written when the history cannot be built.
func ExecuteExport(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	if cfg.OutputFile == "" {
		return ErrExportPath
	}
	start := time.Now()
	result := StockHistory(ctx, store, cfg.Strategy, cfg.Pushdown)
	if err := sectionError(result.Outcome, result.Diagnostic); err != nil {
		return fmt.Errorf("cannot export history: %w", err)
	}

	exportCfg := cfg.Clone()
	exportCfg.Output = schema.ParquetOut
	return outwriter.NewOutWriter().WriteHistory(result, exportCfg, time.Since(start))
}
