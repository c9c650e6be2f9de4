package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/stockpulse/core/agg"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// BuildStockHistory loads the rows the chosen strategy needs and buckets them.
// With pushdown set, snapshots that implement HistoryPushdown bucket inside the database.
func BuildStockHistory(ctx context.Context, snap contract.Snapshot, name schema.StrategyName, pushdown bool) schema.HistoryResult {
	logger := loggerFrom(ctx)

	strategy, err := agg.New(name)
	if err != nil {
		return schema.HistoryResult{Outcome: schema.OutcomeError, Strategy: name, Diagnostic: err.Error()}
	}
	result := schema.HistoryResult{Strategy: strategy.Name()}

	var out agg.Result
	if pd, ok := snap.(contract.HistoryPushdown); ok && pushdown {
		result.Pushdown = true
		out, err = pushdownHistory(ctx, pd, strategy.Name())
	} else {
		if pushdown {
			logger.Debug("store cannot bucket history in SQL, aggregating in process")
		}
		before := unreadableRows(snap)
		var in agg.Input
		in, err = loadInput(ctx, snap, strategy.Name())
		if err == nil {
			out = strategy.Aggregate(in)
			out.SkippedRows += unreadableRows(snap) - before
		}
	}
	if err != nil {
		logger.Error("failed to build stock history", "strategy", strategy.Name(), "error", err)
		result.Outcome = schema.OutcomeError
		result.Diagnostic = err.Error()
		return result
	}

	if len(out.SkippedSessions) > 0 {
		logger.Warn("skipped sessions with unusable bounds", "count", len(out.SkippedSessions), "session_ids", out.SkippedSessions)
	}
	if out.SkippedRows > 0 {
		logger.Warn("skipped rows without a processing timestamp or unreadable", "count", out.SkippedRows)
	}

	result.Points = out.Points
	result.SkippedSessions = out.SkippedSessions
	result.SkippedRows = out.SkippedRows
	if len(out.Points) == 0 {
		result.Outcome = schema.OutcomeEmpty
		result.Diagnostic = NoHistoryData
		result.Points = []schema.StockHistoryPoint{}
		return result
	}
	result.Outcome = schema.OutcomeOK
	return result
}

// loadInput reads what a strategy consumes. The session strategy only needs the
// rows spanning the usable completed sessions.
func loadInput(ctx context.Context, snap contract.Snapshot, name schema.StrategyName) (agg.Input, error) {
	if name == schema.HourlyStrategy {
		obs, err := snap.CategorizedObservations(ctx)
		if err != nil {
			return agg.Input{}, err
		}
		return agg.Input{Observations: obs}, nil
	}

	sessions, err := snap.CompletedSessions(ctx)
	if err != nil {
		return agg.Input{}, err
	}
	start, end, ok := span(sessions)
	if !ok {
		return agg.Input{Sessions: sessions}, nil
	}
	obs, err := snap.ObservationsBetween(ctx, start, end)
	if err != nil {
		return agg.Input{}, err
	}
	return agg.Input{Sessions: sessions, Observations: obs}, nil
}

// unreadableRows returns the snapshot's count of rows it could not scan, zero when it does not track them.
func unreadableRows(snap contract.Snapshot) int {
	if u, ok := snap.(contract.UnreadableRows); ok {
		return u.UnreadableRows()
	}
	return 0
}

// span returns the earliest start and latest end over the usable sessions.
func span(sessions []schema.ScrapingSession) (start, end time.Time, ok bool) {
	for _, s := range sessions {
		w, usable := s.Window()
		if !usable {
			continue
		}
		if !ok || w.Start.Before(start) {
			start = w.Start
		}
		if !ok || w.End.After(end) {
			end = w.End
		}
		ok = true
	}
	return start, end, ok
}

func pushdownHistory(ctx context.Context, pd contract.HistoryPushdown, name schema.StrategyName) (agg.Result, error) {
	switch name {
	case schema.HourlyStrategy:
		points, err := pd.HourlyHistory(ctx)
		if err != nil {
			return agg.Result{}, err
		}
		return agg.Result{Points: points}, nil
	case schema.SessionStrategy:
		points, skipped, err := pd.SessionHistory(ctx)
		if err != nil {
			return agg.Result{}, err
		}
		return agg.Result{Points: points, SkippedSessions: skipped}, nil
	default:
		return agg.Result{}, fmt.Errorf("no pushdown for strategy %q", name)
	}
}
