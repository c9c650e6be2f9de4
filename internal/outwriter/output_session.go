package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteSessionSummary outputs the scraping status card, dispatching based on the output format configured.
func WriteSessionSummary(summary schema.SessionSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON session")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForSession(w, summary)
		}, "Wrote CSV session")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for history")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionCard(w, summary, cfg)
		}, "Wrote session card")
	}
}

func writeCSVResultsForSession(w io.Writer, s schema.SessionSummary) error {
	header := []string{"session_id", "status", "label", "tone", "start", "duration", "products_scraped", "products_processed", "error_message"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		if s.Outcome != schema.OutcomeOK {
			return nil
		}
		return cw.Write([]string{
			sessionIDCell(s.SessionID),
			string(s.Status),
			s.Label,
			string(s.Tone),
			formatTimePtr(s.Start),
			s.Duration,
			strconv.Itoa(s.ProductsScraped),
			strconv.Itoa(s.ProductsProcessed),
			s.ErrorMessage,
		})
	})
}

// writeSessionCard renders the session card as a two-column table.
func writeSessionCard(w io.Writer, s schema.SessionSummary, cfg *contract.Config) error {
	if s.Outcome == schema.OutcomeError {
		_, err := fmt.Fprintf(w, "Scraping status: %s (%s)\n", s.Label, s.Diagnostic)
		return err
	}
	if s.Outcome != schema.OutcomeOK {
		_, err := fmt.Fprintf(w, "Scraping status: %s\n", s.Label)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	data := [][]string{
		{"Session", sessionIDCell(s.SessionID)},
		{"Status", sessionLabel(s.Status, cfg)},
		{"Started", formatTimePtr(s.Start)},
		{"Duration", s.Duration},
		{"Products Scraped", strconv.Itoa(s.ProductsScraped)},
		{"Products Processed", strconv.Itoa(s.ProductsProcessed)},
		{"Errors", s.ErrorMessage},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
