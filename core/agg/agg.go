// Package agg has the stock history bucketing strategies.
//
// Strategies are pure: they read the rows they are given, never modify them,
// and return the same points for the same input.
package agg

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/huangsam/stockpulse/schema"
)

// Input is the raw material for one aggregation pass.
type Input struct {
	Sessions     []schema.ScrapingSession
	Observations []schema.Observation
}

// Result is what a strategy produces.
type Result struct {
	Points          []schema.StockHistoryPoint
	SkippedSessions []int64 // Sessions dropped for missing or inverted bounds
	SkippedRows     int     // Rows dropped for missing timestamps (the core adds unreadable rows)
}

// Strategy turns observations into an ordered stock history series.
type Strategy interface {
	Name() schema.StrategyName
	Aggregate(in Input) Result
}

// New returns the strategy registered under name.
func New(name schema.StrategyName) (Strategy, error) {
	switch name {
	case schema.SessionStrategy, "":
		return SessionBucketed{}, nil
	case schema.HourlyStrategy:
		return HourlyBucketed{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q. must be session or hourly", name)
	}
}

// sortPoints orders points by bucket time, keeping input order for ties.
func sortPoints(points []schema.StockHistoryPoint) {
	slices.SortStableFunc(points, func(a, b schema.StockHistoryPoint) int {
		return a.BucketTime.Compare(b.BucketTime)
	})
}

// sortSessions orders usable sessions by start then id.
func sortSessions(sessions []schema.ScrapingSession) {
	slices.SortStableFunc(sessions, func(a, b schema.ScrapingSession) int {
		if c := a.Start.Compare(*b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
