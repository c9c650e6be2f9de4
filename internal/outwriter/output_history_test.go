package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/parquet"
	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleHistory() schema.HistoryResult {
	return schema.HistoryResult{
		Outcome:  schema.OutcomeOK,
		Strategy: schema.SessionStrategy,
		Points: []schema.StockHistoryPoint{
			{BucketTime: t0, TotalInStock: 4, CategoryCounts: schema.CategoryCounts{"Shoes": 3}, UncategorizedInStock: 1, SessionID: 11},
			{BucketTime: t0.Add(24 * time.Hour), TotalInStock: 2, CategoryCounts: schema.CategoryCounts{"Bags": 2}, SessionID: 12},
		},
		SkippedSessions: []int64{13},
	}
}

func TestWriteHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistoryTable(&buf, sampleHistory(), 150*time.Millisecond))

	output := buf.String()
	assert.Contains(t, output, "2025-03-01T10:00:00Z")
	assert.Contains(t, output, "11")
	assert.Contains(t, output, "Showing 2 session buckets across 2 categories (in-process)")
	assert.Contains(t, output, "Skipped 1 sessions [13] and 0 rows")
	assert.Contains(t, output, "History built in 150ms")
}

func TestWriteHistoryTable_EmptyAndError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistoryTable(&buf, schema.HistoryResult{Outcome: schema.OutcomeEmpty}, 0))
	assert.Equal(t, NoDataAvailable+"\n", buf.String())

	buf.Reset()
	require.NoError(t, writeHistoryTable(&buf, schema.HistoryResult{Outcome: schema.OutcomeError, Diagnostic: "store unavailable: refused"}, 0))
	assert.Equal(t, "Error: store unavailable: refused\n", buf.String())
}

func TestWriteCSVResultsForHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForHistory(&buf, sampleHistory()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"bucket_time", "session_id", "total_in_stock", "uncategorized_in_stock", "Bags", "Shoes"}, records[0])
	assert.Equal(t, []string{"2025-03-01T10:00:00Z", "11", "4", "1", "0", "3"}, records[1])
	assert.Equal(t, []string{"2025-03-02T10:00:00Z", "12", "2", "0", "2", "0"}, records[2])
}

func TestWriteCSVResultsForHistory_Hourly(t *testing.T) {
	res := schema.HistoryResult{
		Outcome:  schema.OutcomeOK,
		Strategy: schema.HourlyStrategy,
		Points:   []schema.StockHistoryPoint{{BucketTime: t0, TotalInStock: 1, CategoryCounts: schema.CategoryCounts{"Bags": 1}}},
	}
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForHistory(&buf, res))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "-", records[1][1], "hourly buckets carry no session")
}

func TestWriteHistoryResults_JSONFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "history.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: out}
	require.NoError(t, WriteHistoryResults(sampleHistory(), cfg, time.Second))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded schema.HistoryResult
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, schema.OutcomeOK, decoded.Outcome)
	require.Len(t, decoded.Points, 2)
	assert.Equal(t, 3, decoded.Points[0].CategoryCounts.Get("Shoes"))
}

func TestWriteHistoryResults_Parquet(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "stock")
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: prefix}
	require.NoError(t, WriteHistoryResults(sampleHistory(), cfg, time.Second))

	for _, suffix := range []string{parquet.HistorySuffix, parquet.CategoryCountsSuffix} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestWriteHistoryResults_ParquetNeedsPrefix(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	err := WriteHistoryResults(sampleHistory(), cfg, time.Second)
	assert.ErrorContains(t, err, "error writing parquet output")
}
