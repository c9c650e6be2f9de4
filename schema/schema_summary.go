package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogSummary is the database card: what the latest session captured.
type CatalogSummary struct {
	Outcome       Outcome             `json:"outcome"`
	Connected     bool                `json:"connected"`
	TotalProducts int                 `json:"total_products"`
	InStock       int                 `json:"in_stock"`
	Priced        int                 `json:"priced"`
	AveragePrice  decimal.NullDecimal `json:"average_price"`
	Window        Window              `json:"window"`
	Diagnostic    string              `json:"diagnostic,omitempty"`
}

// SessionSummary is the scraping status card for the most recent session.
type SessionSummary struct {
	Outcome           Outcome       `json:"outcome"`
	SessionID         int64         `json:"session_id,omitempty"`
	Status            SessionStatus `json:"status,omitempty"`
	Label             string        `json:"label"`
	Tone              Tone          `json:"tone"`
	Start             *time.Time    `json:"start,omitempty"`
	Duration          string        `json:"duration,omitempty"`
	ProductsScraped   int           `json:"products_scraped"`
	ProductsProcessed int           `json:"products_processed"`
	ErrorMessage      string        `json:"error_message"`
	Diagnostic        string        `json:"diagnostic,omitempty"`
}

// Bucket is one bar of a distribution chart.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Distribution is a labelled count series.
type Distribution struct {
	Outcome Outcome  `json:"outcome"`
	Buckets []Bucket `json:"buckets"`
}

// PriceBin is one bin of the price histogram, lower bound inclusive.
type PriceBin struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
	Count int             `json:"count"`
}

// PriceHistogram is the price distribution of the latest session.
type PriceHistogram struct {
	Outcome  Outcome    `json:"outcome"`
	Currency string     `json:"currency"`
	Bins     []PriceBin `json:"bins"`
}

// TopProduct is one row of the most expensive products table.
type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	StockStatus string          `json:"stock_status"`
	Variants    int             `json:"variants"`
	Images      int             `json:"images"`
}

// Charts bundles the point-in-time series derived from the latest session.
type Charts struct {
	Categories     Distribution   `json:"categories"`
	StockStatus    Distribution   `json:"stock_status"`
	Variants       Distribution   `json:"variants"`
	Prices         PriceHistogram `json:"prices"`
	TopProducts    []TopProduct   `json:"top_products"`
	TopProductsOut Outcome        `json:"top_products_outcome"`
}

// StockChange is one product whose presence or stock state moved between sessions.
type StockChange struct {
	ProductID      uuid.UUID      `json:"product_id"`
	IdentitySource IdentitySource `json:"identity_source"`
	Title          string         `json:"title"`
	Category       string         `json:"category,omitempty"`
	Before         string         `json:"before,omitempty"`
	After          string         `json:"after,omitempty"`
}

// ChangesResult is the stock changelog between the two latest usable completed sessions.
type ChangesResult struct {
	Outcome       Outcome       `json:"outcome"`
	Previous      Window        `json:"previous"`
	Current       Window        `json:"current"`
	Restocked     []StockChange `json:"restocked"`
	SoldOut       []StockChange `json:"sold_out"`
	Added         []StockChange `json:"added"`
	Removed       []StockChange `json:"removed"`
	TitleFallback int           `json:"title_fallback"` // Products keyed by title because the URL was missing
	Diagnostic    string        `json:"diagnostic,omitempty"`
}

// Dashboard is everything one refresh tick produces.
type Dashboard struct {
	RefreshedAt time.Time      `json:"refreshed_at"`
	Duration    time.Duration  `json:"duration"`
	Window      WindowResult   `json:"window"`
	Catalog     CatalogSummary `json:"catalog"`
	Session     SessionSummary `json:"session"`
	History     HistoryResult  `json:"history"`
	Charts      Charts         `json:"charts"`
	Changes     ChangesResult  `json:"changes"`
}

// Outcome folds the section outcomes: error wins, then ok, then empty.
func (d Dashboard) Outcome() Outcome {
	outcomes := []Outcome{d.Window.Outcome, d.Catalog.Outcome, d.Session.Outcome, d.History.Outcome}
	hasOK := false
	for _, o := range outcomes {
		if o == OutcomeError {
			return OutcomeError
		}
		if o == OutcomeOK {
			hasOK = true
		}
	}
	if hasOK {
		return OutcomeOK
	}
	return OutcomeEmpty
}
