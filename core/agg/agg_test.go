package agg

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

// at returns a timestamp on the fixed test day.
func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func ptr[T any](v T) *T { return &v }

func session(id int64, status string, start, end *time.Time) schema.ScrapingSession {
	return schema.ScrapingSession{ID: id, Status: status, Start: start, End: end}
}

func obs(ts time.Time, category, status string) schema.Observation {
	return schema.Observation{Title: category + "-item", Category: category, StockStatus: status, ProcessedAt: ts}
}

func TestNew(t *testing.T) {
	s, err := New(schema.SessionStrategy)
	require.NoError(t, err)
	assert.Equal(t, schema.SessionStrategy, s.Name())

	s, err = New("")
	require.NoError(t, err)
	assert.Equal(t, schema.SessionStrategy, s.Name(), "session is the default")

	s, err = New(schema.HourlyStrategy)
	require.NoError(t, err)
	assert.Equal(t, schema.HourlyStrategy, s.Name())

	_, err = New("daily")
	assert.Error(t, err)
}

func TestSessionBucketed_TwoSessions(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{
			session(2, "completed", ptr(at(11, 0)), ptr(at(11, 5))),
			session(1, "completed", ptr(at(10, 0)), ptr(at(10, 5))),
		},
		Observations: []schema.Observation{
			obs(at(10, 1), "Boots", schema.InStockStatus),
			obs(at(10, 2), "Boots", schema.InStockStatus),
			obs(at(10, 3), "Boots", schema.InStockStatus),
			obs(at(10, 3), "Vests", schema.InStockStatus),
			obs(at(10, 4), "Vests", schema.InStockStatus),
			obs(at(11, 2), "Boots", "Out of Stock"),
		},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 2)
	assert.Equal(t, at(10, 0), res.Points[0].BucketTime)
	assert.Equal(t, 5, res.Points[0].TotalInStock)
	assert.Equal(t, schema.CategoryCounts{"Boots": 3, "Vests": 2}, res.Points[0].CategoryCounts)
	assert.Equal(t, int64(1), res.Points[0].SessionID)

	assert.Equal(t, at(11, 0), res.Points[1].BucketTime)
	assert.Equal(t, 0, res.Points[1].TotalInStock)
	assert.Empty(t, res.Points[1].CategoryCounts)
	assert.NotNil(t, res.Points[1].CategoryCounts, "empty sessions carry an empty map, not nil")
	assert.Empty(t, res.SkippedSessions)
}

func TestSessionBucketed_NullCategoryCountsTowardTotal(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{session(1, "completed", ptr(at(10, 0)), ptr(at(10, 30)))},
		Observations: []schema.Observation{
			obs(at(10, 1), "Boots", schema.InStockStatus),
			obs(at(10, 2), "", schema.InStockStatus),
			obs(at(10, 3), "  ", schema.InStockStatus),
			obs(at(10, 4), "", "Out of Stock"),
		},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 1)
	p := res.Points[0]
	assert.Equal(t, 3, p.TotalInStock)
	assert.Equal(t, schema.CategoryCounts{"Boots": 1}, p.CategoryCounts)
	assert.Equal(t, 2, p.UncategorizedInStock)
	assert.Equal(t, p.TotalInStock, p.CategoryCounts.Total()+p.UncategorizedInStock)
}

func TestSessionBucketed_InclusiveBounds(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{session(1, "completed", ptr(at(10, 0)), ptr(at(10, 5)))},
		Observations: []schema.Observation{
			obs(at(10, 0), "Boots", schema.InStockStatus),
			obs(at(10, 5), "Boots", schema.InStockStatus),
			obs(at(10, 5).Add(time.Nanosecond), "Boots", schema.InStockStatus),
			obs(at(10, 0).Add(-time.Nanosecond), "Boots", schema.InStockStatus),
		},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 1)
	assert.Equal(t, 2, res.Points[0].TotalInStock)
}

func TestSessionBucketed_SkipsUnusableSessions(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{
			session(1, "completed", ptr(at(8, 0)), nil),
			session(2, "completed", nil, ptr(at(9, 0))),
			session(3, "completed", ptr(at(10, 5)), ptr(at(10, 0))),
			session(4, "Completed", ptr(at(11, 0)), ptr(at(11, 5))),
			session(5, "FAILED", ptr(at(12, 0)), ptr(at(12, 5))),
			session(6, "running", ptr(at(13, 0)), nil),
		},
		Observations: []schema.Observation{obs(at(11, 1), "Boots", schema.InStockStatus)},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 1)
	assert.Equal(t, int64(4), res.Points[0].SessionID)
	assert.Equal(t, 1, res.Points[0].TotalInStock)
	assert.ElementsMatch(t, []int64{1, 2, 3}, res.SkippedSessions, "failed and running sessions are filtered, not skipped")
}

func TestSessionBucketed_OverlappingSessionsCountInEach(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{
			session(1, "completed", ptr(at(10, 0)), ptr(at(10, 30))),
			session(2, "completed", ptr(at(10, 15)), ptr(at(10, 45))),
		},
		Observations: []schema.Observation{obs(at(10, 20), "Boots", schema.InStockStatus)},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 2)
	assert.Equal(t, 1, res.Points[0].TotalInStock)
	assert.Equal(t, 1, res.Points[1].TotalInStock)
}

func TestSessionBucketed_NoSessions(t *testing.T) {
	res := SessionBucketed{}.Aggregate(Input{
		Observations: []schema.Observation{obs(at(10, 0), "Boots", schema.InStockStatus)},
	})
	assert.Empty(t, res.Points)
	assert.Empty(t, res.SkippedSessions)
}

func TestSessionBucketed_SkipsRowsWithoutTimestamp(t *testing.T) {
	in := Input{
		Sessions:     []schema.ScrapingSession{session(1, "completed", ptr(at(10, 0)), ptr(at(10, 5)))},
		Observations: []schema.Observation{obs(time.Time{}, "Boots", schema.InStockStatus)},
	}

	res := SessionBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 1)
	assert.Equal(t, 0, res.Points[0].TotalInStock)
	assert.Equal(t, 1, res.SkippedRows)
}

func TestHourlyBucketed_FloorsToHour(t *testing.T) {
	in := Input{
		Observations: []schema.Observation{
			obs(at(10, 15), "Vests", schema.InStockStatus),
			obs(at(9, 10), "Boots", schema.InStockStatus),
			obs(at(9, 50), "Boots", schema.InStockStatus),
		},
	}

	res := HourlyBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 2)
	assert.Equal(t, schema.StockHistoryPoint{
		BucketTime:     at(9, 0),
		TotalInStock:   2,
		CategoryCounts: schema.CategoryCounts{"Boots": 2},
	}, res.Points[0])
	assert.Equal(t, schema.StockHistoryPoint{
		BucketTime:     at(10, 0),
		TotalInStock:   1,
		CategoryCounts: schema.CategoryCounts{"Vests": 1},
	}, res.Points[1])
}

func TestHourlyBucketed_ExcludesUncategorizedAndOutOfStock(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{session(1, "completed", ptr(at(0, 0)), ptr(at(23, 0)))},
		Observations: []schema.Observation{
			obs(at(9, 10), "", schema.InStockStatus),
			obs(at(9, 20), "Boots", "Out of Stock"),
			obs(at(10, 20), "Boots", "Out of Stock"),
			obs(at(11, 5), "Boots", schema.InStockStatus),
		},
	}

	res := HourlyBucketed{}.Aggregate(in)

	require.Len(t, res.Points, 1, "hours without in-stock categorized rows emit nothing")
	assert.Equal(t, at(11, 0), res.Points[0].BucketTime)
	assert.Equal(t, 1, res.Points[0].TotalInStock)
	assert.Zero(t, res.Points[0].UncategorizedInStock)
}

func TestHourlyBucketed_NoZeroEntries(t *testing.T) {
	in := Input{
		Observations: []schema.Observation{
			obs(at(9, 10), "Boots", schema.InStockStatus),
			obs(at(9, 20), "Vests", "Out of Stock"),
			obs(at(10, 20), "Vests", schema.InStockStatus),
			obs(at(10, 30), "Boots", "Out of Stock"),
		},
	}

	res := HourlyBucketed{}.Aggregate(in)

	for _, p := range res.Points {
		for cat, n := range p.CategoryCounts {
			assert.Positive(t, n, "category %s at %s", cat, p.BucketTime)
		}
		assert.Equal(t, p.CategoryCounts.Total(), p.TotalInStock)
	}
	assert.NotContains(t, res.Points[0].CategoryCounts, "Vests")
	assert.NotContains(t, res.Points[1].CategoryCounts, "Boots")
}

func TestHourlyBucketed_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2024, 3, 12, 9, 45, 0, 0, loc)

	got := FloorHour(ts)

	assert.Equal(t, time.Date(2024, 3, 12, 9, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestHourlyBucketed_EmptyOnlyWithoutObservations(t *testing.T) {
	assert.Empty(t, HourlyBucketed{}.Aggregate(Input{}).Points)

	res := HourlyBucketed{}.Aggregate(Input{
		Observations: []schema.Observation{obs(at(9, 10), "Boots", schema.InStockStatus)},
	})
	assert.Len(t, res.Points, 1, "no sessions needed")
}

func TestStrategies_OrderedAndIdempotent(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{
			session(3, "completed", ptr(at(14, 0)), ptr(at(14, 10))),
			session(1, "completed", ptr(at(9, 0)), ptr(at(9, 10))),
			session(2, "completed", ptr(at(9, 0)), ptr(at(9, 20))),
		},
	}
	for h := 8; h < 16; h++ {
		for _, cat := range []string{"Boots", "Vests", "Hats", ""} {
			in.Observations = append(in.Observations, obs(at(h, 5), cat, schema.InStockStatus))
		}
	}

	for _, s := range []Strategy{SessionBucketed{}, HourlyBucketed{}} {
		t.Run(string(s.Name()), func(t *testing.T) {
			first := s.Aggregate(in)
			second := s.Aggregate(in)

			for i := 1; i < len(first.Points); i++ {
				assert.False(t, first.Points[i].BucketTime.Before(first.Points[i-1].BucketTime))
			}
			for _, p := range first.Points {
				for _, n := range p.CategoryCounts {
					assert.GreaterOrEqual(t, n, 0)
				}
			}

			a, err := json.Marshal(first.Points)
			require.NoError(t, err)
			b, err := json.Marshal(second.Points)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestStrategies_DoNotMutateInput(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{
			session(2, "completed", ptr(at(11, 0)), ptr(at(11, 5))),
			session(1, "completed", ptr(at(10, 0)), ptr(at(10, 5))),
		},
		Observations: []schema.Observation{
			obs(at(11, 1), "Vests", schema.InStockStatus),
			obs(at(10, 1), "Boots", schema.InStockStatus),
		},
	}
	sessions := append([]schema.ScrapingSession(nil), in.Sessions...)
	observations := append([]schema.Observation(nil), in.Observations...)

	SessionBucketed{}.Aggregate(in)
	HourlyBucketed{}.Aggregate(in)

	assert.Equal(t, sessions, in.Sessions)
	assert.Equal(t, observations, in.Observations)
}

// TestStrategies_NullCategoryDivergence pins the two null-category policies side by side.
func TestStrategies_NullCategoryDivergence(t *testing.T) {
	in := Input{
		Sessions: []schema.ScrapingSession{session(1, "completed", ptr(at(10, 0)), ptr(at(10, 59)))},
		Observations: []schema.Observation{
			obs(at(10, 10), "Boots", schema.InStockStatus),
			obs(at(10, 20), "", schema.InStockStatus),
		},
	}

	bySession := SessionBucketed{}.Aggregate(in)
	byHour := HourlyBucketed{}.Aggregate(in)

	require.Len(t, bySession.Points, 1)
	require.Len(t, byHour.Points, 1)
	assert.Equal(t, 2, bySession.Points[0].TotalInStock)
	assert.Equal(t, 1, byHour.Points[0].TotalInStock)
	assert.Equal(t, bySession.Points[0].CategoryCounts, byHour.Points[0].CategoryCounts)
}
