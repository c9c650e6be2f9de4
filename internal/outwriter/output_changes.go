package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/olekukonko/tablewriter"
)

// Change kinds as they appear in the table and CSV.
const (
	RestockedKind = "restocked"
	SoldOutKind   = "sold_out"
	AddedKind     = "added"
	RemovedKind   = "removed"
)

type changeGroup struct {
	kind    string
	changes []schema.StockChange
}

func changeGroups(result schema.ChangesResult) []changeGroup {
	return []changeGroup{
		{RestockedKind, result.Restocked},
		{SoldOutKind, result.SoldOut},
		{AddedKind, result.Added},
		{RemovedKind, result.Removed},
	}
}

// WriteChangesResults outputs the stock changelog, dispatching based on the output format configured.
func WriteChangesResults(result schema.ChangesResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON changes")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForChanges(w, result)
		}, "Wrote CSV changes")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for history")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeChangesTable(w, result, cfg, duration)
		}, "Wrote changes table")
	}
}

func writeCSVResultsForChanges(w io.Writer, result schema.ChangesResult) error {
	header := []string{"kind", "product_id", "identity_source", "title", "category", "before", "after"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, g := range changeGroups(result) {
			for _, c := range g.changes {
				if err := cw.Write([]string{
					g.kind,
					c.ProductID.String(),
					string(c.IdentitySource),
					c.Title,
					c.Category,
					c.Before,
					c.After,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeChangesTable(w io.Writer, result schema.ChangesResult, cfg *contract.Config, duration time.Duration) error {
	if stop, err := writeOutcomeLine(w, result.Outcome, result.Diagnostic); stop || err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Comparing %s .. %s with %s .. %s\n",
		formatTime(result.Previous.Start), formatTime(result.Previous.End),
		formatTime(result.Current.Start), formatTime(result.Current.End)); err != nil {
		return err
	}

	titleWidth := getMaxTableTitleWidth(cfg, 50)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Change", "Title", "Category", "Before", "After"})

	var data [][]string
	for _, g := range changeGroups(result) {
		for _, c := range g.changes {
			data = append(data, []string{
				g.kind,
				contract.TruncateText(c.Title, titleWidth),
				c.Category,
				c.Before,
				c.After,
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Restocked: %d, sold out: %d, added: %d, removed: %d\n",
		len(result.Restocked), len(result.SoldOut), len(result.Added), len(result.Removed)); err != nil {
		return err
	}
	if result.TitleFallback > 0 {
		if _, err := fmt.Fprintf(w, "%d products were matched by title because their URL was missing\n", result.TitleFallback); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Changes computed in %v\n", duration)
	return err
}
