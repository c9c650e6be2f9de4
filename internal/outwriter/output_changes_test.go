package outwriter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChanges() schema.ChangesResult {
	bag := uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://s/bag"))
	return schema.ChangesResult{
		Outcome:  schema.OutcomeOK,
		Previous: schema.Window{Start: t0, End: t0.Add(time.Hour)},
		Current:  schema.Window{Start: t0.Add(24 * time.Hour), End: t0.Add(25 * time.Hour)},
		Restocked: []schema.StockChange{
			{ProductID: bag, IdentitySource: schema.IdentityFromURL, Title: "Bag", Category: "Bags", Before: "Out of Stock", After: "In Stock"},
		},
		SoldOut: []schema.StockChange{},
		Added: []schema.StockChange{
			{ProductID: uuid.New(), IdentitySource: schema.IdentityFromTitle, Title: "Hat", After: "In Stock"},
		},
		Removed:       []schema.StockChange{},
		TitleFallback: 1,
	}
}

func TestWriteChangesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeChangesTable(&buf, sampleChanges(), &contract.Config{Width: 120}, 5*time.Millisecond))

	output := buf.String()
	assert.Contains(t, output, "Comparing 2025-03-01T10:00:00Z .. 2025-03-01T11:00:00Z with 2025-03-02T10:00:00Z .. 2025-03-02T11:00:00Z")
	assert.Contains(t, output, RestockedKind)
	assert.Contains(t, output, "Out of Stock")
	assert.Contains(t, output, "Restocked: 1, sold out: 0, added: 1, removed: 0")
	assert.Contains(t, output, "1 products were matched by title")
	assert.Contains(t, output, "Changes computed in 5ms")
}

func TestWriteChangesTable_NotEnoughSessions(t *testing.T) {
	var buf bytes.Buffer
	res := schema.ChangesResult{Outcome: schema.OutcomeEmpty, Diagnostic: "Not enough sessions"}
	require.NoError(t, writeChangesTable(&buf, res, &contract.Config{}, 0))
	assert.Equal(t, NoDataAvailable+"\n", buf.String())
}

func TestWriteCSVResultsForChanges(t *testing.T) {
	res := sampleChanges()
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForChanges(&buf, res))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"kind", "product_id", "identity_source", "title", "category", "before", "after"}, records[0])
	assert.Equal(t, []string{RestockedKind, res.Restocked[0].ProductID.String(), "url", "Bag", "Bags", "Out of Stock", "In Stock"}, records[1])
	assert.Equal(t, AddedKind, records[2][0])
	assert.Equal(t, "title", records[2][2])
}
