package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/shopspring/decimal"
)

// NoDataAvailable is what every text section prints for an empty outcome.
const NoDataAvailable = "No data available"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// formatters bundles the closures shared by the text and CSV writers.
type formatters struct {
	// price renders a decimal with the configured precision and currency symbol.
	price func(decimal.Decimal) string
	// plain renders a decimal with the configured precision only (CSV).
	plain func(decimal.Decimal) string
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int, currency string) formatters {
	plain := func(d decimal.Decimal) string {
		return d.StringFixed(int32(precision))
	}
	return formatters{
		price: func(d decimal.Decimal) string {
			if currency == "" {
				return plain(d)
			}
			return currency + plain(d)
		},
		plain: plain,
	}
}

// formatNullPrice renders a nullable price, "-" when missing.
func (f formatters) formatNullPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return f.price(d.Decimal)
}

// formatTime renders a timestamp, "-" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(contract.DateTimeFormat)
}

// formatTimePtr renders an optional timestamp.
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

// writeOutcomeLine prints the text placeholder for non-ok sections.
// It returns true when the caller should stop rendering the section.
func writeOutcomeLine(w io.Writer, outcome schema.Outcome, diagnostic string) (bool, error) {
	switch outcome {
	case schema.OutcomeOK:
		return false, nil
	case schema.OutcomeError:
		if diagnostic == "" {
			diagnostic = "unavailable"
		}
		_, err := fmt.Fprintf(w, "Error: %s\n", diagnostic)
		return true, err
	default:
		_, err := fmt.Fprintln(w, NoDataAvailable)
		return true, err
	}
}

// sessionLabel renders a session status, colored when the config allows it.
func sessionLabel(status schema.SessionStatus, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(status)
	}
	return contract.GetPlainLabel(status)
}
