package obstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/shopspring/decimal"
)

// rowScanner is the part of *sql.Rows and pgx.Rows the scanners need.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// nullTime scans a nullable timestamp. SQLite stores timestamps as text.
type nullTime struct {
	textual bool
	t       *time.Time
	s       *string
}

func (n *nullTime) dest() any {
	if n.textual {
		return &n.s
	}
	return &n.t
}

func (n *nullTime) value() (*time.Time, error) {
	if !n.textual {
		return n.t, nil
	}
	if n.s == nil || strings.TrimSpace(*n.s) == "" {
		return nil, nil
	}
	return parseTextTime(*n.s)
}

// textTimeLayouts are the text forms SQLite writers commonly use. Values
// without an offset are UTC, as SQLite's own date functions read them.
var textTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func parseTextTime(raw string) (*time.Time, error) {
	v := strings.TrimSpace(raw)
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("failed to parse timestamp %q", raw)
}

// scanSessions reads session rows in sessionColumns order and reports how many
// rows could not be scanned at all. A row whose timestamps cannot be parsed keeps
// the session with missing bounds, which makes it unusable downstream instead of
// failing the whole read.
func scanSessions(rows rowScanner, textualTime bool, logger *slog.Logger) ([]schema.ScrapingSession, int, error) {
	var (
		sessions   []schema.ScrapingSession
		unreadable int
	)
	for rows.Next() {
		var (
			s                  schema.ScrapingSession
			status, errMsg     *string
			scraped, processed *int64
			start              = nullTime{textual: textualTime}
			end                = nullTime{textual: textualTime}
		)
		if err := rows.Scan(&s.ID, &status, start.dest(), end.dest(), &scraped, &processed, &errMsg); err != nil {
			unreadable++
			logger.Warn("skipped unreadable scraping session row", "error", err)
			continue
		}
		startTime, startErr := start.value()
		endTime, endErr := end.value()
		if startErr != nil || endErr != nil {
			logger.Warn("session has unreadable bounds", "session_id", s.ID, "start_error", startErr, "end_error", endErr)
		}
		s.Status = deref(status)
		s.Start = startTime
		s.End = endTime
		s.ProductsScraped = int(derefInt(scraped))
		s.ProductsProcessed = int(derefInt(processed))
		s.ErrorMessage = deref(errMsg)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, unreadable, fmt.Errorf("error iterating scraping sessions: %w", err)
	}
	return sessions, unreadable, nil
}

// scanObservations reads product rows in productColumns order and reports how
// many rows could not be scanned. Malformed prices and timestamps degrade to null
// on that row only; a row that cannot be scanned is dropped.
//
// database/sql keeps the result set open after a failed Scan. pgx closes it, so
// on PostgreSQL the failure surfaces through rows.Err instead.
func scanObservations(rows rowScanner, textualTime bool, logger *slog.Logger) ([]schema.Observation, int, error) {
	var (
		observations []schema.Observation
		badPrices    int
		badTimes     int
		unreadable   int
	)
	for rows.Next() {
		var (
			o                                   schema.Observation
			title, url, category, status, price *string
			variants, images                    *int64
			processed                           = nullTime{textual: textualTime}
		)
		if err := rows.Scan(&title, &url, &category, &status, &price, &variants, &images, processed.dest()); err != nil {
			unreadable++
			logger.Debug("skipped unreadable product row", "error", err)
			continue
		}
		o.Title = deref(title)
		o.URL = deref(url)
		o.Category = strings.TrimSpace(deref(category))
		o.StockStatus = deref(status)
		o.VariantCount = toIntPtr(variants)
		o.ImageCount = toIntPtr(images)

		var ok bool
		if o.Price, ok = parsePrice(price); !ok {
			badPrices++
		}
		if ts, err := processed.value(); err != nil {
			badTimes++
		} else if ts != nil {
			o.ProcessedAt = *ts
		}

		o.ProductID, o.IdentitySource = ProductIdentity(o.URL, o.Title)
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, unreadable, fmt.Errorf("error iterating products: %w", err)
	}
	if badPrices > 0 || badTimes > 0 || unreadable > 0 {
		logger.Warn("degraded malformed product values",
			"bad_prices", badPrices, "bad_timestamps", badTimes, "unreadable_rows", unreadable, "rows", len(observations))
	}
	return observations, unreadable, nil
}

// parsePrice converts the text form of a price. It reports false for a non-null value that is not numeric.
func parsePrice(s *string) (decimal.NullDecimal, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.NullDecimal{}, true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// decodeCategoryCounts accepts a mapping either decoded or still JSON-encoded.
// Counts must be non-negative whole numbers.
func decodeCategoryCounts(raw any) (schema.CategoryCounts, error) {
	switch v := raw.(type) {
	case nil:
		return schema.CategoryCounts{}, nil
	case schema.CategoryCounts:
		return validateCounts(v)
	case map[string]int:
		return validateCounts(v)
	case map[string]any:
		out := make(schema.CategoryCounts, len(v))
		for k, n := range v {
			f, ok := n.(float64)
			if !ok || f != float64(int(f)) {
				return nil, fmt.Errorf("category %q has non-integer count %v", k, n)
			}
			out[k] = int(f)
		}
		return validateCounts(out)
	case []byte:
		return decodeCategoryCounts(string(v))
	case *string:
		if v == nil {
			return schema.CategoryCounts{}, nil
		}
		return decodeCategoryCounts(*v)
	case string:
		if strings.TrimSpace(v) == "" {
			return schema.CategoryCounts{}, nil
		}
		var out schema.CategoryCounts
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("malformed category mapping: %w", err)
		}
		if out == nil {
			out = schema.CategoryCounts{}
		}
		return validateCounts(out)
	default:
		return nil, fmt.Errorf("unsupported category mapping type %T", raw)
	}
}

func validateCounts(m map[string]int) (schema.CategoryCounts, error) {
	out := make(schema.CategoryCounts, len(m))
	for k, n := range m {
		if n < 0 {
			return nil, fmt.Errorf("category %q has negative count %d", k, n)
		}
		if n == 0 {
			continue
		}
		out[k] = n
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func toIntPtr(n *int64) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}
