package dashboard

import (
	"testing"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveRefresh(t *testing.T) {
	m := NewMetrics()
	d := schema.Dashboard{
		Duration: 250 * time.Millisecond,
		History: schema.HistoryResult{
			Outcome:         schema.OutcomeOK,
			Points:          make([]schema.StockHistoryPoint, 3),
			SkippedSessions: []int64{7},
			SkippedRows:     2,
		},
	}

	m.ObserveRefresh(d)
	m.ObserveRefresh(d)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(string(schema.OutcomeOK))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HistoryPoints))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedRecords.WithLabelValues(SkippedSession)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SkippedRecords.WithLabelValues(SkippedRow)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RefreshDuration))
}

func TestMetrics_ErrorOutcome(t *testing.T) {
	m := NewMetrics()
	m.ObserveRefresh(schema.Dashboard{
		Catalog: schema.CatalogSummary{Outcome: schema.OutcomeError},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(string(schema.OutcomeError))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HistoryPoints))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRefresh(schema.Dashboard{}) })
}
