package schema

import (
	"maps"
	"slices"
	"time"
)

// CategoryCounts maps a category to its in-stock count.
// A category that is absent counts as zero.
type CategoryCounts map[string]int

// Get returns the count for a category, zero when absent.
func (c CategoryCounts) Get(category string) int {
	return c[category]
}

// Total sums all category counts.
func (c CategoryCounts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// Keys returns the categories in sorted order.
func (c CategoryCounts) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// StockHistoryPoint is one bucket of the stock history series.
type StockHistoryPoint struct {
	BucketTime           time.Time      `json:"bucket_time"`
	TotalInStock         int            `json:"total_in_stock"`
	CategoryCounts       CategoryCounts `json:"category_counts"`
	UncategorizedInStock int            `json:"uncategorized_in_stock"` // In-stock rows without category (session strategy only)
	SessionID            int64          `json:"session_id,omitempty"`   // Source session (session strategy only)
}

// WindowResult is the outcome of resolving the latest completed session.
type WindowResult struct {
	Outcome    Outcome          `json:"outcome"`
	Window     Window           `json:"window"`
	Session    *ScrapingSession `json:"session,omitempty"`
	Diagnostic string           `json:"diagnostic,omitempty"`
}

// ProductsResult holds the observations of one session window.
type ProductsResult struct {
	Outcome      Outcome       `json:"outcome"`
	Window       Window        `json:"window"`
	Observations []Observation `json:"observations"`
	Diagnostic   string        `json:"diagnostic,omitempty"`
}

// HistoryResult is the outcome of building the stock history series.
type HistoryResult struct {
	Outcome         Outcome             `json:"outcome"`
	Strategy        StrategyName        `json:"strategy"`
	Points          []StockHistoryPoint `json:"points"`
	SkippedSessions []int64             `json:"skipped_sessions,omitempty"`
	SkippedRows     int                 `json:"skipped_rows,omitempty"`
	Pushdown        bool                `json:"pushdown"`
	Diagnostic      string              `json:"diagnostic,omitempty"`
}

// Categories returns every category seen across the series, sorted.
func (r HistoryResult) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range r.Points {
		for k := range p.CategoryCounts {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// SessionResult is the outcome of loading the most recent session of any status.
type SessionResult struct {
	Outcome    Outcome          `json:"outcome"`
	Session    *ScrapingSession `json:"session,omitempty"`
	Diagnostic string           `json:"diagnostic,omitempty"`
}
