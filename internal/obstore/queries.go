package obstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/stockpulse/schema"
)

// Table names owned by the scraper.
const (
	productsTable = "products"
	sessionsTable = "scraping_sessions"
)

// sqliteTimeLayout is how bounds are bound on SQLite. Stored values may use any
// layout SQLite's date functions accept; comparisons go through julianday().
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sessionColumns and productColumns are selected in this order by every query.
const (
	sessionColumns = "id, status, session_start, session_end, products_scraped, products_processed, error_message"
	productColumns = "title, url, category, stock_status, %s, variant_count, image_count, processing_timestamp"
)

// dialect renders SQL for one backend and schema.
type dialect struct {
	backend    schema.DatabaseBackend
	schemaName string
}

// table returns the quoted, schema-qualified table name.
// SQLite has no schemas, so the name is used alone.
func (d dialect) table(name string) string {
	switch d.backend {
	case schema.MySQLBackend:
		if d.schemaName == "" {
			return "`" + name + "`"
		}
		return "`" + d.schemaName + "`.`" + name + "`"
	case schema.PostgreSQLBackend:
		if d.schemaName == "" {
			return `"` + name + `"`
		}
		return `"` + d.schemaName + `"."` + name + `"`
	default:
		return `"` + name + `"`
	}
}

// placeholder returns the n-th (1-based) bind parameter marker.
func (d dialect) placeholder(n int) string {
	if d.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// priceText casts the price column to text so every driver scans it the same way.
func (d dialect) priceText() string {
	if d.backend == schema.MySQLBackend {
		return "CAST(price AS CHAR)"
	}
	return "CAST(price AS TEXT)"
}

// timeArg converts a bound timestamp into what the backend compares correctly.
func (d dialect) timeArg(t time.Time) any {
	if d.backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}

// timeExpr wraps a timestamp column or placeholder so it compares in time order.
// SQLite keeps timestamps as text in whatever layout the writer chose.
func (d dialect) timeExpr(expr string) string {
	if d.backend == schema.SQLiteBackend {
		return "julianday(" + expr + ")"
	}
	return expr
}

// newestFirst orders sessions by start descending with null starts last on every backend.
func (d dialect) newestFirst() string {
	return fmt.Sprintf("ORDER BY CASE WHEN session_start IS NULL THEN 1 ELSE 0 END, %s DESC, id DESC", d.timeExpr("session_start"))
}

// completedFilter matches the status case-insensitively.
const completedFilter = "LOWER(status) = 'completed'"

func (d dialect) latestCompletedSessionQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s %s LIMIT 1",
		sessionColumns, d.table(sessionsTable), completedFilter, d.newestFirst())
}

func (d dialect) latestSessionQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s %s LIMIT 1",
		sessionColumns, d.table(sessionsTable), d.newestFirst())
}

func (d dialect) completedSessionsQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s %s",
		sessionColumns, d.table(sessionsTable), completedFilter, d.newestFirst())
}

func (d dialect) observationsBetweenQuery() string {
	ts := d.timeExpr("processing_timestamp")
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s >= %s AND %s <= %s ORDER BY %s, title",
		fmt.Sprintf(productColumns, d.priceText()), d.table(productsTable),
		ts, d.timeExpr(d.placeholder(1)), ts, d.timeExpr(d.placeholder(2)), ts)
}

func (d dialect) categorizedObservationsQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE category IS NOT NULL AND TRIM(category) <> '' ORDER BY %s, title",
		fmt.Sprintf(productColumns, d.priceText()), d.table(productsTable), d.timeExpr("processing_timestamp"))
}

// versionQuery returns the server version query.
func (d dialect) versionQuery() string {
	if d.backend == schema.SQLiteBackend {
		return "SELECT sqlite_version()"
	}
	return "SELECT version()"
}

// schemaExistsQuery returns a query counting schemas named like the configured one.
func (d dialect) schemaExistsQuery() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = %s", d.placeholder(1))
}

func (d dialect) countQuery(table string) string {
	return "SELECT COUNT(*) FROM " + d.table(table)
}

// sessionHistoryQuery buckets in-stock rows per completed session inside PostgreSQL.
// The LEFT JOINs keep sessions with no in-stock rows; category_counts is returned as JSON text.
func (d dialect) sessionHistoryQuery() string {
	return strings.TrimSpace(fmt.Sprintf(`
WITH completed AS (
	SELECT id, session_start, session_end
	FROM %[1]s
	WHERE %[3]s
),
per_category AS (
	SELECT c.id AS session_id, p.category, COUNT(*) AS cnt
	FROM completed c
	JOIN %[2]s p ON p.processing_timestamp >= c.session_start AND p.processing_timestamp <= c.session_end
	WHERE p.stock_status = '%[4]s' AND p.category IS NOT NULL AND TRIM(p.category) <> ''
	GROUP BY c.id, p.category
),
per_session AS (
	SELECT c.id AS session_id, COUNT(p.processing_timestamp) AS total
	FROM completed c
	LEFT JOIN %[2]s p ON p.processing_timestamp >= c.session_start AND p.processing_timestamp <= c.session_end
		AND p.stock_status = '%[4]s'
	GROUP BY c.id
)
SELECT c.id, c.session_start, c.session_end, COALESCE(ps.total, 0),
	COALESCE((SELECT json_object_agg(pc.category, pc.cnt) FROM per_category pc WHERE pc.session_id = c.id)::text, '{}')
FROM completed c
LEFT JOIN per_session ps ON ps.session_id = c.id
ORDER BY c.session_start ASC NULLS LAST, c.id ASC`,
		d.table(sessionsTable), d.table(productsTable), completedFilter, schema.InStockStatus))
}

// hourlyHistoryQuery buckets categorized in-stock rows per floored hour inside PostgreSQL.
func (d dialect) hourlyHistoryQuery() string {
	return strings.TrimSpace(fmt.Sprintf(`
SELECT date_trunc('hour', processing_timestamp) AS bucket, category, COUNT(*)
FROM %s
WHERE stock_status = '%s' AND category IS NOT NULL AND TRIM(category) <> '' AND processing_timestamp IS NOT NULL
GROUP BY bucket, category
ORDER BY bucket ASC, category ASC`,
		d.table(productsTable), schema.InStockStatus))
}
