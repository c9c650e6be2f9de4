package outwriter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSessionCard(t *testing.T) {
	s := sampleDashboard().Session
	var buf bytes.Buffer
	require.NoError(t, writeSessionCard(&buf, s, &contract.Config{}))

	output := buf.String()
	assert.Contains(t, output, "Completed")
	assert.Contains(t, output, "1:02:03")
	assert.Contains(t, output, "No errors reported")
	assert.Contains(t, output, "2025-03-01T10:00:00Z")
}

func TestWriteSessionCard_NoSession(t *testing.T) {
	var buf bytes.Buffer
	s := schema.SessionSummary{Outcome: schema.OutcomeEmpty, Label: "No Session Data"}
	require.NoError(t, writeSessionCard(&buf, s, &contract.Config{}))
	assert.Equal(t, "Scraping status: No Session Data\n", buf.String())
}

func TestWriteCSVResultsForSession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForSession(&buf, sampleDashboard().Session))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"9", "completed", "Completed", "success", "2025-03-01T10:00:00Z", "1:02:03", "12", "0", "No errors reported"}, records[1])

	buf.Reset()
	require.NoError(t, writeCSVResultsForSession(&buf, schema.SessionSummary{Outcome: schema.OutcomeEmpty}))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "only the header when there is no session")
}

func TestSessionLabel(t *testing.T) {
	assert.Equal(t, "Failed", sessionLabel(schema.FailedSession, &contract.Config{UseColors: false}))
	assert.Contains(t, sessionLabel(schema.FailedSession, &contract.Config{UseColors: true}), "Failed")
}

func TestWriteStoreStatus(t *testing.T) {
	last := t0
	status := schema.StoreStatus{
		Backend:       "postgresql",
		Connected:     true,
		ServerVersion: "PostgreSQL 16.2",
		Schema:        "agilite",
		SchemaExists:  true,
		TableSizes:    map[string]int64{"scraping_sessions": 4, "products": 120},
		LastSession:   &last,
	}

	rows := statusRows(status)
	assert.Equal(t, []string{"backend", "postgresql"}, rows[0])
	assert.Contains(t, rows, []string{"rows.products", "120"})
	assert.Contains(t, rows, []string{"last_session", "2025-03-01T10:00:00Z"})

	var buf bytes.Buffer
	require.NoError(t, writeStatusTable(&buf, status))
	assert.Contains(t, buf.String(), "PostgreSQL 16.2")
}

func TestStatusRows_UnreadableTableAndNoSchema(t *testing.T) {
	status := schema.StoreStatus{
		Backend:    "sqlite",
		Connected:  true,
		TableSizes: map[string]int64{"products": -1},
		Error:      "no such table: products",
	}
	rows := statusRows(status)
	assert.Contains(t, rows, []string{"rows.products", "unreadable"})
	assert.Contains(t, rows, []string{"last_session", "-"})
	assert.Contains(t, rows, []string{"error", "no such table: products"})
	for _, r := range rows {
		assert.NotEqual(t, "schema", r[0])
	}
}
