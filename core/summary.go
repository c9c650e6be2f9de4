package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/shopspring/decimal"
)

// Fallback texts of the session card.
const (
	StillRunning     = "Still running..."
	NoErrorsReported = "No errors reported."
	NoSessionLabel   = "No Session Data"
)

// SummarizeCatalog computes the database card from the latest session's products.
func SummarizeCatalog(products schema.ProductsResult) schema.CatalogSummary {
	summary := schema.CatalogSummary{
		Outcome:    products.Outcome,
		Connected:  products.Outcome != schema.OutcomeError,
		Window:     products.Window,
		Diagnostic: products.Diagnostic,
	}
	if products.Outcome != schema.OutcomeOK {
		if products.Outcome == schema.OutcomeEmpty {
			summary.Diagnostic = NoProductData
		}
		return summary
	}

	sum := decimal.Zero
	for _, o := range products.Observations {
		summary.TotalProducts++
		if o.InStock() {
			summary.InStock++
		}
		if o.Price.Valid {
			summary.Priced++
			sum = sum.Add(o.Price.Decimal)
		}
	}
	if summary.Priced > 0 {
		summary.AveragePrice = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(summary.Priced))))
	}
	return summary
}

// SummarizeSession builds the scraping status card for the most recent session.
func SummarizeSession(session schema.SessionResult) schema.SessionSummary {
	switch {
	case session.Outcome == schema.OutcomeError:
		return schema.SessionSummary{
			Outcome:    schema.OutcomeError,
			Label:      "Unavailable",
			Tone:       schema.SecondaryTone,
			Diagnostic: session.Diagnostic,
		}
	case session.Session == nil:
		return schema.SessionSummary{
			Outcome:    schema.OutcomeEmpty,
			Label:      NoSessionLabel,
			Tone:       schema.SecondaryTone,
			Diagnostic: NoSessionData,
		}
	}

	s := session.Session
	status := schema.SessionStatus(strings.ToLower(strings.TrimSpace(s.Status)))
	summary := schema.SessionSummary{
		Outcome:           schema.OutcomeOK,
		SessionID:         s.ID,
		Status:            status,
		Label:             contract.GetPlainLabel(status),
		Tone:              schema.ToneFor(status),
		Start:             s.Start,
		Duration:          sessionDuration(s),
		ProductsScraped:   s.ProductsScraped,
		ProductsProcessed: s.ProductsProcessed,
		ErrorMessage:      NoErrorsReported,
	}
	if msg := strings.TrimSpace(s.ErrorMessage); msg != "" {
		summary.ErrorMessage = msg
	}
	return summary
}

// sessionDuration renders end minus start as H:MM:SS.
func sessionDuration(s *schema.ScrapingSession) string {
	if s.End == nil {
		return StillRunning
	}
	if s.Start == nil {
		return "0:00:00"
	}
	return FormatClock(s.End.Sub(*s.Start))
}

// FormatClock renders a duration as H:MM:SS, dropping fractional seconds.
func FormatClock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%s%d:%02d:%02d", sign, total/3600, (total/60)%60, total%60)
}
