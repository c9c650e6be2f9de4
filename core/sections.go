package core

import (
	"context"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// unavailable formats the diagnostic carried by every section when Acquire fails.
func unavailable(err error) string {
	return "store unavailable: " + err.Error()
}

// withSnapshot borrows one snapshot for fn and releases it on return.
// It reports false when the store could not be reached.
func withSnapshot(ctx context.Context, store contract.ObservationStore, fn func(contract.Snapshot)) (bool, string) {
	logger := loggerFrom(ctx)
	snap, err := store.Acquire(ctx)
	if err != nil {
		logger.Error("store unavailable", "error", err)
		return false, unavailable(err)
	}
	defer func() {
		if err := snap.Close(); err != nil {
			logger.Warn("failed to release snapshot", "error", err)
		}
	}()
	fn(snap)
	return true, ""
}

// StockHistory builds the history series on a snapshot of its own.
func StockHistory(ctx context.Context, store contract.ObservationStore, name schema.StrategyName, pushdown bool) schema.HistoryResult {
	var res schema.HistoryResult
	ok, diag := withSnapshot(ctx, store, func(snap contract.Snapshot) {
		res = BuildStockHistory(ctx, snap, name, pushdown)
	})
	if !ok {
		return schema.HistoryResult{Outcome: schema.OutcomeError, Strategy: name, Points: []schema.StockHistoryPoint{}, Diagnostic: diag}
	}
	return res
}

// LatestSessionSummary loads and summarizes the most recent session on a snapshot of its own.
func LatestSessionSummary(ctx context.Context, store contract.ObservationStore) schema.SessionSummary {
	var res schema.SessionResult
	ok, diag := withSnapshot(ctx, store, func(snap contract.Snapshot) {
		res = LoadLatestSession(ctx, snap)
	})
	if !ok {
		res = schema.SessionResult{Outcome: schema.OutcomeError, Diagnostic: diag}
	}
	return SummarizeSession(res)
}

// StockChanges builds the stock changelog on a snapshot of its own.
func StockChanges(ctx context.Context, store contract.ObservationStore, limit int) schema.ChangesResult {
	var res schema.ChangesResult
	ok, diag := withSnapshot(ctx, store, func(snap contract.Snapshot) {
		res = BuildStockChanges(ctx, snap, limit)
	})
	if !ok {
		return schema.ChangesResult{Outcome: schema.OutcomeError, Diagnostic: diag}
	}
	return res
}
