package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/parquet"
	"github.com/huangsam/stockpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteHistoryResults outputs the stock history, dispatching based on the output format configured.
func WriteHistoryResults(result schema.HistoryResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON history"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForHistory(w, result)
		}, "Wrote CSV history"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		historyPath, countsPath, err := parquet.ExportHistory(result, cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet history to %s and %s\n", historyPath, countsPath)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, result, duration)
		}, "Wrote history table")
	}
	return nil
}

// writeCSVResultsForHistory writes one row per bucket and one column per category seen in the series.
func writeCSVResultsForHistory(w io.Writer, result schema.HistoryResult) error {
	categories := result.Categories()
	header := append([]string{"bucket_time", "session_id", "total_in_stock", "uncategorized_in_stock"}, categories...)

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.Points {
			row := []string{
				p.BucketTime.Format(contract.DateTimeFormat),
				sessionIDCell(p.SessionID),
				strconv.Itoa(p.TotalInStock),
				strconv.Itoa(p.UncategorizedInStock),
			}
			for _, c := range categories {
				row = append(row, strconv.Itoa(p.CategoryCounts.Get(c)))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeHistoryTable prints the series with one column per category.
func writeHistoryTable(w io.Writer, result schema.HistoryResult, duration time.Duration) error {
	if stop, err := writeOutcomeLine(w, result.Outcome, result.Diagnostic); stop || err != nil {
		return err
	}

	categories := result.Categories()
	table := tablewriter.NewWriter(w)
	headers := append([]string{"Bucket", "Session", "In Stock", "Uncategorized"}, categories...)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range result.Points {
		row := []string{
			p.BucketTime.Format(contract.DateTimeFormat),
			sessionIDCell(p.SessionID),
			strconv.Itoa(p.TotalInStock),
			strconv.Itoa(p.UncategorizedInStock),
		}
		for _, c := range categories {
			row = append(row, strconv.Itoa(p.CategoryCounts.Get(c)))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	mode := "in-process"
	if result.Pushdown {
		mode = "pushdown"
	}
	if _, err := fmt.Fprintf(w, "Showing %d %s buckets across %d categories (%s)\n",
		len(result.Points), result.Strategy, len(categories), mode); err != nil {
		return err
	}
	if len(result.SkippedSessions) > 0 || result.SkippedRows > 0 {
		if _, err := fmt.Fprintf(w, "Skipped %d sessions %v and %d rows\n",
			len(result.SkippedSessions), result.SkippedSessions, result.SkippedRows); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "History built in %v\n", duration)
	return err
}

func sessionIDCell(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}
