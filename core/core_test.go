package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/obstore"
	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// hourlyStore serves one in-stock categorized row to the hourly strategy.
func hourlyStore() (*obstore.MockObservationStore, *obstore.MockSnapshot) {
	snap := &obstore.MockSnapshot{}
	snap.On("CategorizedObservations", mock.Anything).Return([]schema.Observation{
		observation("Bag", "https://s/bag", "Bags", "In Stock", "40", t0.Add(5*time.Minute)),
	}, nil)
	snap.On("Close").Return(nil).Once()
	store := &obstore.MockObservationStore{}
	store.On("Acquire", mock.Anything).Return(snap, nil)
	return store, snap
}

func fileConfig(t *testing.T, output schema.OutputMode, name string) *contract.Config {
	t.Helper()
	return &contract.Config{
		Strategy:     schema.HourlyStrategy,
		Output:       output,
		OutputFile:   filepath.Join(t.TempDir(), name),
		Precision:    2,
		Currency:     "₪",
		TopProducts:  10,
		PriceBins:    20,
		ChangesLimit: 25,
	}
}

func TestExecuteHistory(t *testing.T) {
	store, snap := hourlyStore()
	cfg := fileConfig(t, schema.JSONOut, "history.json")

	require.NoError(t, ExecuteHistory(context.Background(), cfg, store))
	snap.AssertExpectations(t)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var res schema.HistoryResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, schema.OutcomeOK, res.Outcome)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 1, res.Points[0].CategoryCounts.Get("Bags"))
}

func TestExecuteHistory_StoreUnavailable(t *testing.T) {
	cfg := fileConfig(t, schema.TextOut, "history.txt")

	err := ExecuteHistory(context.Background(), cfg, unreachableStore())
	require.Error(t, err)
	assert.Equal(t, "store unavailable: connection refused", err.Error())

	data, readErr := os.ReadFile(cfg.OutputFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Error: store unavailable: connection refused")
}

func TestExecuteSessionAndChanges_StoreUnavailable(t *testing.T) {
	err := ExecuteSession(context.Background(), fileConfig(t, schema.JSONOut, "session.json"), unreachableStore())
	assert.ErrorContains(t, err, "store unavailable")

	err = ExecuteChanges(context.Background(), fileConfig(t, schema.CSVOut, "changes.csv"), unreachableStore())
	assert.ErrorContains(t, err, "store unavailable")
}

func TestExecuteDashboard_StoreUnavailable(t *testing.T) {
	cfg := fileConfig(t, schema.TextOut, "dashboard.txt")
	err := ExecuteDashboard(context.Background(), cfg, unreachableStore())
	assert.ErrorContains(t, err, "store unavailable")

	data, readErr := os.ReadFile(cfg.OutputFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Disconnected")
}

func TestExecuteStoreStatus(t *testing.T) {
	store := &obstore.MockObservationStore{}
	store.On("Status", mock.Anything).Return(schema.StoreStatus{Backend: "sqlite", Error: "disk I/O error"}, errors.New("disk I/O error"))
	cfg := fileConfig(t, schema.CSVOut, "status.csv")

	err := ExecuteStoreStatus(context.Background(), cfg, store)
	assert.ErrorContains(t, err, "store status is incomplete: disk I/O error")

	data, readErr := os.ReadFile(cfg.OutputFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "backend,sqlite")
}

func TestExecuteExport(t *testing.T) {
	store, _ := hourlyStore()
	cfg := fileConfig(t, schema.TextOut, "stock")

	require.NoError(t, ExecuteExport(context.Background(), cfg, store))
	assert.FileExists(t, cfg.OutputFile+".history.parquet")
	assert.FileExists(t, cfg.OutputFile+".category_counts.parquet")
	assert.Equal(t, schema.TextOut, cfg.Output, "export must not change the caller's config")
}

func TestExecuteExport_Errors(t *testing.T) {
	cfg := fileConfig(t, schema.TextOut, "stock")
	cfg.OutputFile = ""
	assert.ErrorIs(t, ExecuteExport(context.Background(), cfg, unreachableStore()), ErrExportPath)

	cfg = fileConfig(t, schema.TextOut, "stock")
	err := ExecuteExport(context.Background(), cfg, unreachableStore())
	assert.ErrorContains(t, err, "cannot export history: store unavailable")
	assert.NoFileExists(t, cfg.OutputFile+".history.parquet")
}
