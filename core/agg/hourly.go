package agg

import (
	"time"

	"github.com/huangsam/stockpulse/schema"
)

// HourlyBucketed groups categorized in-stock observations by the hour they were processed.
//
// Sessions are ignored, which makes it the fallback when session bounds are
// unreliable. Rows without a category are excluded before bucketing, so the
// total equals the sum of the category counts and no zero entries are emitted.
// Hours without any in-stock categorized row produce no point.
type HourlyBucketed struct{}

var _ Strategy = HourlyBucketed{} // Compile-time check

// Name implements Strategy.
func (HourlyBucketed) Name() schema.StrategyName { return schema.HourlyStrategy }

// Aggregate implements Strategy.
func (HourlyBucketed) Aggregate(in Input) Result {
	var res Result
	buckets := make(map[time.Time]schema.CategoryCounts)

	for _, o := range in.Observations {
		if !o.HasCategory() {
			continue
		}
		if o.ProcessedAt.IsZero() {
			res.SkippedRows++
			continue
		}
		if !o.InStock() {
			continue
		}
		hour := FloorHour(o.ProcessedAt)
		counts, ok := buckets[hour]
		if !ok {
			counts = schema.CategoryCounts{}
			buckets[hour] = counts
		}
		counts[o.Category]++
	}

	res.Points = make([]schema.StockHistoryPoint, 0, len(buckets))
	for hour, counts := range buckets {
		res.Points = append(res.Points, schema.StockHistoryPoint{
			BucketTime:     hour,
			TotalInStock:   counts.Total(),
			CategoryCounts: counts,
		})
	}

	sortPoints(res.Points)
	return res
}

// FloorHour truncates t to the start of its hour in t's own location.
func FloorHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
