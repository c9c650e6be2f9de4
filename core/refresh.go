package core

import (
	"context"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// Options controls one refresh pass.
type Options struct {
	Strategy     schema.StrategyName
	Pushdown     bool
	Charts       ChartOptions
	ChangesLimit int
}

// OptionsFromConfig maps the runtime config onto refresh options.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		Strategy: cfg.Strategy,
		Pushdown: cfg.Pushdown,
		Charts: ChartOptions{
			TopProducts: cfg.TopProducts,
			PriceBins:   cfg.PriceBins,
			Currency:    cfg.Currency,
		},
		ChangesLimit: cfg.ChangesLimit,
	}
}

// Refresh runs one synchronous pass over the store and returns every dashboard section.
// The snapshot it borrows is released on every path. A store that cannot be reached
// yields a dashboard whose sections all carry the error outcome.
func Refresh(ctx context.Context, store contract.ObservationStore, opts Options) schema.Dashboard {
	start := time.Now()
	logger := loggerFrom(ctx)

	snap, err := store.Acquire(ctx)
	if err != nil {
		logger.Error("store unavailable", "error", err)
		d := Unavailable(err, opts)
		d.RefreshedAt = start
		d.Duration = time.Since(start)
		return d
	}
	defer func() {
		if err := snap.Close(); err != nil {
			logger.Warn("failed to release snapshot", "error", err)
		}
	}()

	window := ResolveLatestWindow(ctx, snap)
	products := LoadCurrentProducts(ctx, snap, window)
	history := BuildStockHistory(ctx, snap, opts.Strategy, opts.Pushdown)
	session := LoadLatestSession(ctx, snap)
	changes := BuildStockChanges(ctx, snap, opts.ChangesLimit)

	d := schema.Dashboard{
		RefreshedAt: start,
		Window:      window,
		Catalog:     SummarizeCatalog(products),
		Session:     SummarizeSession(session),
		History:     history,
		Charts:      BuildCharts(products, opts.Charts),
		Changes:     changes,
	}
	d.Duration = time.Since(start)
	logger.Info("refresh finished",
		"outcome", d.Outcome(),
		"strategy", history.Strategy,
		"points", len(history.Points),
		"products", d.Catalog.TotalProducts,
		"duration", d.Duration)
	return d
}

// Unavailable builds the dashboard shown when the store cannot be reached.
func Unavailable(err error, opts Options) schema.Dashboard {
	diag := unavailable(err)
	errDist := schema.Distribution{Outcome: schema.OutcomeError, Buckets: []schema.Bucket{}}
	return schema.Dashboard{
		Window:  schema.WindowResult{Outcome: schema.OutcomeError, Diagnostic: diag},
		Catalog: schema.CatalogSummary{Outcome: schema.OutcomeError, Diagnostic: diag},
		Session: schema.SessionSummary{
			Outcome:    schema.OutcomeError,
			Label:      "Unavailable",
			Tone:       schema.SecondaryTone,
			Diagnostic: diag,
		},
		History: schema.HistoryResult{
			Outcome:    schema.OutcomeError,
			Strategy:   opts.Strategy,
			Points:     []schema.StockHistoryPoint{},
			Diagnostic: diag,
		},
		Charts: schema.Charts{
			Categories:     errDist,
			StockStatus:    errDist,
			Variants:       errDist,
			Prices:         schema.PriceHistogram{Outcome: schema.OutcomeError, Currency: opts.Charts.Currency, Bins: []schema.PriceBin{}},
			TopProducts:    []schema.TopProduct{},
			TopProductsOut: schema.OutcomeError,
		},
		Changes: schema.ChangesResult{Outcome: schema.OutcomeError, Diagnostic: diag},
	}
}
