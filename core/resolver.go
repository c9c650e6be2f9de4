package core

import (
	"context"
	"fmt"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// Diagnostics shown to users when a section has nothing to report.
const (
	NoCompletedSession = "no completed scraping session found"
	NoProductData      = "No product data available for the last session."
	NoSessionData      = "Could not find any scraping session records."
	NoHistoryData      = "no stock history available"
)

// ResolveLatestWindow finds the inclusive time window of the most recent completed session.
// A missing session or one with incomplete bounds is empty, not an error.
func ResolveLatestWindow(ctx context.Context, snap contract.Snapshot) schema.WindowResult {
	logger := loggerFrom(ctx)

	session, err := snap.LatestCompletedSession(ctx)
	if err != nil {
		logger.Error("failed to resolve latest session window", "error", err)
		return schema.WindowResult{Outcome: schema.OutcomeError, Diagnostic: err.Error()}
	}
	if session == nil {
		return schema.WindowResult{Outcome: schema.OutcomeEmpty, Diagnostic: NoCompletedSession}
	}

	window, ok := session.Window()
	if !ok {
		logger.Warn("latest completed session has unusable bounds", "session_id", session.ID,
			"has_start", session.Start != nil, "has_end", session.End != nil)
		return schema.WindowResult{
			Outcome:    schema.OutcomeEmpty,
			Session:    session,
			Diagnostic: fmt.Sprintf("session %d is missing its start or end time", session.ID),
		}
	}
	return schema.WindowResult{Outcome: schema.OutcomeOK, Window: window, Session: session}
}

// LoadCurrentProducts loads the observations captured inside a resolved window.
// Non-ok windows pass their outcome through.
func LoadCurrentProducts(ctx context.Context, snap contract.Snapshot, window schema.WindowResult) schema.ProductsResult {
	if window.Outcome != schema.OutcomeOK {
		return schema.ProductsResult{Outcome: window.Outcome, Diagnostic: window.Diagnostic}
	}

	obs, err := snap.ObservationsBetween(ctx, window.Window.Start, window.Window.End)
	if err != nil {
		loggerFrom(ctx).Error("failed to load current products", "error", err)
		return schema.ProductsResult{Outcome: schema.OutcomeError, Window: window.Window, Diagnostic: err.Error()}
	}
	if len(obs) == 0 {
		return schema.ProductsResult{Outcome: schema.OutcomeEmpty, Window: window.Window, Diagnostic: NoProductData}
	}
	return schema.ProductsResult{Outcome: schema.OutcomeOK, Window: window.Window, Observations: obs}
}

// LoadLatestSession loads the most recent session of any status.
func LoadLatestSession(ctx context.Context, snap contract.Snapshot) schema.SessionResult {
	session, err := snap.LatestSession(ctx)
	if err != nil {
		loggerFrom(ctx).Error("failed to load latest session", "error", err)
		return schema.SessionResult{Outcome: schema.OutcomeError, Diagnostic: err.Error()}
	}
	if session == nil {
		return schema.SessionResult{Outcome: schema.OutcomeEmpty, Diagnostic: NoSessionData}
	}
	return schema.SessionResult{Outcome: schema.OutcomeOK, Session: session}
}
