package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteStoreStatus outputs the store health check, dispatching based on the output format configured.
func WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON status")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForStatus(w, status)
		}, "Wrote CSV status")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for history")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusTable(w, status)
		}, "Wrote status table")
	}
}

func statusRows(status schema.StoreStatus) [][]string {
	rows := [][]string{
		{"backend", status.Backend},
		{"connected", strconv.FormatBool(status.Connected)},
		{"server_version", status.ServerVersion},
	}
	if status.Schema != "" {
		rows = append(rows,
			[]string{"schema", status.Schema},
			[]string{"schema_exists", strconv.FormatBool(status.SchemaExists)})
	}
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		size := "unreadable"
		if n := status.TableSizes[table]; n >= 0 {
			size = strconv.FormatInt(n, 10)
		}
		rows = append(rows, []string{"rows." + table, size})
	}
	rows = append(rows, []string{"last_session", formatTimePtr(status.LastSession)})
	if status.Error != "" {
		rows = append(rows, []string{"error", status.Error})
	}
	return rows
}

func writeCSVResultsForStatus(w io.Writer, status schema.StoreStatus) error {
	return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
		return cw.WriteAll(statusRows(status))
	})
}

func writeStatusTable(w io.Writer, status schema.StoreStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	if err := table.Bulk(statusRows(status)); err != nil {
		return err
	}
	return table.Render()
}
