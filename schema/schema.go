// Package schema has the models, enums and result types shared by all parts of stockpulse.
package schema

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Observation is one product row captured by a scraper run.
// Rows are append-only; nothing in stockpulse mutates them.
type Observation struct {
	ProductID      uuid.UUID           `json:"product_id"`      // Stable identity derived at the store boundary
	IdentitySource IdentitySource      `json:"identity_source"` // Which attribute ProductID was derived from
	Title          string              `json:"title"`
	URL            string              `json:"url,omitempty"`
	Category       string              `json:"category,omitempty"` // Empty means the category was null
	StockStatus    string              `json:"stock_status"`
	Price          decimal.NullDecimal `json:"price"`
	VariantCount   *int                `json:"variant_count,omitempty"`
	ImageCount     *int                `json:"image_count,omitempty"`
	ProcessedAt    time.Time           `json:"processed_at"` // Zero when the source value was null
}

// InStock reports whether the row carries the canonical in-stock marker.
// The comparison is exact on purpose: "in stock" or "In stock " are not in stock.
func (o Observation) InStock() bool {
	return o.StockStatus == InStockStatus
}

// HasCategory reports whether the row has a usable category.
func (o Observation) HasCategory() bool {
	return strings.TrimSpace(o.Category) != ""
}

// ScrapingSession is one scraper run with its lifecycle metadata.
type ScrapingSession struct {
	ID                int64      `json:"id"`
	Status            string     `json:"status"`
	Start             *time.Time `json:"session_start,omitempty"`
	End               *time.Time `json:"session_end,omitempty"`
	ProductsScraped   int        `json:"products_scraped"`
	ProductsProcessed int        `json:"products_processed"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// Completed reports whether the session status is "completed", ignoring case.
func (s ScrapingSession) Completed() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), string(CompletedSession))
}

// Usable reports whether the session bounds form a valid window.
func (s ScrapingSession) Usable() bool {
	return s.Start != nil && s.End != nil && !s.End.Before(*s.Start)
}

// Window returns the inclusive bounds of a usable session.
func (s ScrapingSession) Window() (Window, bool) {
	if !s.Usable() {
		return Window{}, false
	}
	return Window{Start: *s.Start, End: *s.End}, true
}

// Window is an inclusive [Start, End] time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
