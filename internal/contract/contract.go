// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/stockpulse/schema"
)

// ObservationStore is the read side of the scraper's database.
// It owns the connection pool; callers borrow one Snapshot per refresh tick.
type ObservationStore interface {
	// Acquire checks out a dedicated connection and opens a read transaction on it.
	// The caller must Close the snapshot on every exit path.
	Acquire(ctx context.Context) (Snapshot, error)

	// Status runs the connection check: server version, schema and table sizes.
	Status(ctx context.Context) (schema.StoreStatus, error)

	// Backend names the database flavor behind the store.
	Backend() schema.DatabaseBackend

	// Close releases the pool.
	Close() error
}

// Snapshot is a connection-scoped view of the observation store.
// Any failed query rolls the transaction back before the next one runs.
type Snapshot interface {
	// LatestCompletedSession returns the most recent session whose status is
	// "completed" in any case, or nil when there is none.
	LatestCompletedSession(ctx context.Context) (*schema.ScrapingSession, error)

	// LatestSession returns the most recent session of any status, or nil.
	LatestSession(ctx context.Context) (*schema.ScrapingSession, error)

	// CompletedSessions returns every completed session, newest first.
	CompletedSessions(ctx context.Context) ([]schema.ScrapingSession, error)

	// ObservationsBetween returns rows processed inside [start, end].
	ObservationsBetween(ctx context.Context, start, end time.Time) ([]schema.Observation, error)

	// CategorizedObservations returns every row with a non-null category.
	CategorizedObservations(ctx context.Context) ([]schema.Observation, error)

	// Close rolls back and returns the connection to the pool.
	Close() error
}

// HistoryPushdown is implemented by snapshots that can bucket history inside the database.
type HistoryPushdown interface {
	// SessionHistory buckets in-stock rows per completed session.
	// It returns the points and the ids of sessions skipped for bad bounds or a malformed mapping.
	SessionHistory(ctx context.Context) ([]schema.StockHistoryPoint, []int64, error)

	// HourlyHistory buckets categorized in-stock rows per floored hour.
	HourlyHistory(ctx context.Context) ([]schema.StockHistoryPoint, error)
}

// UnreadableRows is implemented by snapshots that drop rows they cannot scan.
type UnreadableRows interface {
	// UnreadableRows returns the running count of dropped rows.
	UnreadableRows() int
}
