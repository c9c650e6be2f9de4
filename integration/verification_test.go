//go:build basic

package integration

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// sqliteLayout matches the fixed-width text timestamps the SQLite store compares.
const sqliteLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sqliteTime(t time.Time) any { return t.UTC().Format(sqliteLayout) }

// seedGeneratedCatalog writes sessions sessions of random products into db.
// Half of every session lands in the following hour so hourly and session buckets differ.
func seedGeneratedCatalog(t *testing.T, db *sql.DB, sessions int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	categories := []string{"Shoes", "Bags", "Hats", ""}
	stocks := []string{"In Stock", "Out of Stock", "in stock"}

	for s := range sessions {
		start := t0.Add(time.Duration(s) * 3 * time.Hour).Add(30 * time.Minute)
		end := start.Add(time.Hour)
		_, err := db.Exec(
			"INSERT INTO scraping_sessions (id, status, session_start, session_end, products_scraped, products_processed) VALUES (?, 'completed', ?, ?, 20, 20)",
			s+1, sqliteTime(start), sqliteTime(end))
		require.NoError(t, err)

		for p := range 20 {
			var category any
			if c := categories[rng.IntN(len(categories))]; c != "" {
				category = c
			}
			at := start.Add(time.Duration(p*3) * time.Minute)
			_, err := db.Exec(
				"INSERT INTO products (title, url, category, stock_status, price, variant_count, image_count, processing_timestamp) VALUES (?, ?, ?, ?, ?, 1, 1, ?)",
				fmt.Sprintf("Product %d", p), fmt.Sprintf("https://shop/p/%d", p), category,
				stocks[rng.IntN(len(stocks))], fmt.Sprintf("%d.50", 10+rng.IntN(90)), sqliteTime(at))
			require.NoError(t, err)
		}
	}
}

// TestHistoryMatchesSQLCounts compares the CLI's history against counts computed directly in SQLite.
func TestHistoryMatchesSQLCounts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stockpulse.db")
	env := []string{
		"STOCKPULSE_BACKEND=sqlite",
		"STOCKPULSE_DB_CONNECT=" + dbPath,
	}

	_, err := runStockpulse(t, env, "store", "migrate")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	seedGeneratedCatalog(t, db, 4)

	t.Run("session buckets", func(t *testing.T) {
		out, err := runStockpulse(t, env, "history", "--strategy", "session", "--output", "csv")
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 5, "header plus one row per session")
		assert.Equal(t, []string{"bucket_time", "session_id", "total_in_stock", "uncategorized_in_stock"}, records[0][:4])

		for _, row := range records[1:] {
			var want, wantUncategorized int
			require.NoError(t, db.QueryRow(`
				SELECT COUNT(*), COALESCE(SUM(CASE WHEN p.category IS NULL THEN 1 ELSE 0 END), 0)
				FROM products p JOIN scraping_sessions s ON s.id = ?
				WHERE p.stock_status = 'In Stock'
				AND p.processing_timestamp >= s.session_start AND p.processing_timestamp <= s.session_end`,
				row[1]).Scan(&want, &wantUncategorized))

			assert.Equal(t, strconv.Itoa(want), row[2], "session %s total", row[1])
			assert.Equal(t, strconv.Itoa(wantUncategorized), row[3], "session %s uncategorized", row[1])
		}
	})

	t.Run("hourly buckets", func(t *testing.T) {
		out, err := runStockpulse(t, env, "history", "--strategy", "hourly", "--output", "json")
		require.NoError(t, err)

		var history schema.HistoryResult
		require.NoError(t, json.Unmarshal([]byte(out), &history))
		assert.Equal(t, schema.OutcomeOK, history.Outcome)

		rows, err := db.Query(`
			SELECT substr(processing_timestamp, 1, 13), category, COUNT(*)
			FROM products
			WHERE stock_status = 'In Stock' AND category IS NOT NULL
			GROUP BY 1, 2`)
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()

		want := make(map[string]schema.CategoryCounts)
		for rows.Next() {
			var hour, category string
			var n int
			require.NoError(t, rows.Scan(&hour, &category, &n))
			if want[hour] == nil {
				want[hour] = schema.CategoryCounts{}
			}
			want[hour][category] = n
		}
		require.NoError(t, rows.Err())

		require.Len(t, history.Points, len(want))
		for _, p := range history.Points {
			hour := p.BucketTime.UTC().Format("2006-01-02T15")
			require.Contains(t, want, hour)
			assert.Equal(t, want[hour].Total(), p.TotalInStock, "hour %s total", hour)
			for category, n := range want[hour] {
				assert.Equal(t, n, p.CategoryCounts.Get(category), "hour %s %s", hour, category)
			}
		}
	})

	t.Run("changes between the last two sessions", func(t *testing.T) {
		out, err := runStockpulse(t, env, "changes", "--output", "json")
		require.NoError(t, err)

		var changes schema.ChangesResult
		require.NoError(t, json.Unmarshal([]byte(out), &changes))
		assert.Equal(t, schema.OutcomeOK, changes.Outcome)
		// Every product URL exists in both sessions.
		assert.Empty(t, changes.Added)
		assert.Empty(t, changes.Removed)
	})
}

// TestSeededFixture runs the small hand-written fixture through SQLite.
func TestSeededFixture(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stockpulse.db")
	env := []string{
		"STOCKPULSE_BACKEND=sqlite",
		"STOCKPULSE_DB_CONNECT=" + dbPath,
	}

	_, err := runStockpulse(t, env, "store", "migrate")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	seed(t, db, "", func(int) string { return "?" }, sqliteTime)

	out, err := runStockpulse(t, env, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "All checks passed")

	out, err = runStockpulse(t, env, "changes", "--output", "json")
	require.NoError(t, err)
	var changes schema.ChangesResult
	require.NoError(t, json.Unmarshal([]byte(out), &changes))
	require.Len(t, changes.SoldOut, 1)
	assert.Equal(t, "Boot", changes.SoldOut[0].Title)
	require.Len(t, changes.Added, 1)
	assert.Equal(t, "Scarf", changes.Added[0].Title)
}

// TestUnavailableStore checks that an unreachable database still prints the outcome and exits non-zero.
func TestUnavailableStore(t *testing.T) {
	env := []string{
		"STOCKPULSE_BACKEND=postgresql",
		"STOCKPULSE_DB_CONNECT=postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
	}

	out, err := runStockpulse(t, env, "history")
	assert.Error(t, err)
	assert.Contains(t, out, "Error:")

	out, err = runStockpulse(t, env, "check")
	assert.Error(t, err)
	assert.Contains(t, out, "Store check failed")
}
