package agg

import (
	"slices"
	"time"

	"github.com/huangsam/stockpulse/schema"
)

// SessionBucketed emits one point per usable completed session.
//
// Every in-stock observation inside the session window counts toward the
// total, including rows without a category. Only categorized rows appear in
// the category map; the difference is reported as UncategorizedInStock.
// Sessions with no in-stock rows still emit a zero point.
type SessionBucketed struct{}

var _ Strategy = SessionBucketed{} // Compile-time check

// Name implements Strategy.
func (SessionBucketed) Name() schema.StrategyName { return schema.SessionStrategy }

// Aggregate implements Strategy.
func (SessionBucketed) Aggregate(in Input) Result {
	var res Result

	// 1. Keep completed sessions with valid bounds
	sessions := make([]schema.ScrapingSession, 0, len(in.Sessions))
	for _, s := range in.Sessions {
		if !s.Completed() {
			continue
		}
		if !s.Usable() {
			res.SkippedSessions = append(res.SkippedSessions, s.ID)
			continue
		}
		sessions = append(sessions, s)
	}
	sortSessions(sessions)

	// 2. Index in-stock rows that carry a timestamp
	inStock := make([]schema.Observation, 0, len(in.Observations))
	for _, o := range in.Observations {
		if o.ProcessedAt.IsZero() {
			res.SkippedRows++
			continue
		}
		if o.InStock() {
			inStock = append(inStock, o)
		}
	}
	slices.SortStableFunc(inStock, func(a, b schema.Observation) int {
		return a.ProcessedAt.Compare(b.ProcessedAt)
	})

	// 3. Count each session window; overlapping windows count a row in each
	res.Points = make([]schema.StockHistoryPoint, 0, len(sessions))
	for _, s := range sessions {
		w, _ := s.Window()
		point := schema.StockHistoryPoint{
			BucketTime:     w.Start,
			CategoryCounts: schema.CategoryCounts{},
			SessionID:      s.ID,
		}
		lo, _ := slices.BinarySearchFunc(inStock, w.Start, func(o schema.Observation, t time.Time) int {
			return o.ProcessedAt.Compare(t)
		})
		for _, o := range inStock[lo:] {
			if o.ProcessedAt.After(w.End) {
				break
			}
			point.TotalInStock++
			if o.HasCategory() {
				point.CategoryCounts[o.Category]++
			} else {
				point.UncategorizedInStock++
			}
		}
		res.Points = append(res.Points, point)
	}

	sortPoints(res.Points)
	return res
}
