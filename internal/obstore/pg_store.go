package obstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgPool is the part of *pgxpool.Pool the PostgreSQL store uses.
type PgPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds tunable parameters for the PostgreSQL connection pool.
type PoolConfig struct {
	MaxConns int
	MinConns int
	Lazy     bool // Skip the startup ping
}

// NewPgPool creates a PostgreSQL connection pool and pings it.
func NewPgPool(ctx context.Context, dsn string, opts ...PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	lazy := len(opts) > 0 && opts[0].Lazy
	if len(opts) > 0 && opts[0].MaxConns > 0 {
		config.MaxConns = int32(opts[0].MaxConns)
	}
	if len(opts) > 0 && opts[0].MinConns > 0 {
		config.MinConns = int32(opts[0].MinConns)
	}
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if lazy {
		return pool, nil
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgresql database: %w. Check that PostgreSQL is running and the connection string is correct", err)
	}
	return pool, nil
}

// PgStore reads observations through native pgx and can bucket history in SQL.
type PgStore struct {
	pool    PgPool
	dialect dialect
	logger  *slog.Logger
}

var _ contract.ObservationStore = &PgStore{} // Compile-time check

// NewPgStore wraps a pool. The store takes ownership of pool.
func NewPgStore(pool PgPool, schemaName string, logger *slog.Logger) *PgStore {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &PgStore{
		pool:    pool,
		dialect: dialect{backend: schema.PostgreSQLBackend, schemaName: schemaName},
		logger:  logger.With("backend", string(schema.PostgreSQLBackend)),
	}
}

func (s *PgStore) Backend() schema.DatabaseBackend {
	return schema.PostgreSQLBackend
}

func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

var readOnlyTx = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// Acquire opens a read-only transaction, which holds one pooled connection until Close.
func (s *PgStore) Acquire(ctx context.Context) (contract.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return &pgSnapshot{store: s, tx: tx}, nil
}

// Status queries the server version and reports table sizes.
func (s *PgStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(schema.PostgreSQLBackend),
		Schema:     s.dialect.schemaName,
		TableSizes: make(map[string]int64),
	}
	if err := s.pool.QueryRow(ctx, s.dialect.versionQuery()).Scan(&status.ServerVersion); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("failed to query server version: %w", err)
	}
	status.Connected = true

	var n int64
	if err := s.pool.QueryRow(ctx, s.dialect.schemaExistsQuery(), s.dialect.schemaName).Scan(&n); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("failed to check schema %q: %w", s.dialect.schemaName, err)
	}
	status.SchemaExists = n > 0
	if !status.SchemaExists {
		status.Error = fmt.Sprintf("schema %q does not exist", s.dialect.schemaName)
		return status, nil
	}

	for _, table := range []string{productsTable, sessionsTable} {
		var size int64
		if err := s.pool.QueryRow(ctx, s.dialect.countQuery(table)).Scan(&size); err != nil {
			s.logger.Warn("table is not readable", "table", table, "error", err)
			status.TableSizes[table] = -1
			continue
		}
		status.TableSizes[table] = size
	}
	return status, nil
}

// pgSnapshot is one read-only transaction on the pool.
type pgSnapshot struct {
	store *PgStore
	tx    pgx.Tx

	mu         sync.Mutex
	closed     bool
	unreadable int
}

var (
	_ contract.Snapshot        = &pgSnapshot{} // Compile-time check
	_ contract.HistoryPushdown = &pgSnapshot{} // Compile-time check
	_ contract.UnreadableRows  = &pgSnapshot{} // Compile-time check
)

// query runs fn on the rows of q. A failed statement aborts a PostgreSQL
// transaction, so it is rolled back and a new one begun before returning.
func (s *pgSnapshot) query(ctx context.Context, q string, args []any, fn func(rows pgx.Rows) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.tx == nil {
		return ErrSnapshotClosed
	}

	err := func() error {
		rows, err := s.tx.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if err := fn(rows); err != nil {
			return err
		}
		return rows.Err()
	}()
	if err == nil {
		return nil
	}

	bg := context.WithoutCancel(ctx)
	if rbErr := s.tx.Rollback(bg); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		s.store.logger.Warn("rollback after failed query did not complete", "error", rbErr)
	}
	s.tx = nil
	tx, beginErr := s.store.pool.BeginTx(bg, readOnlyTx)
	if beginErr != nil {
		s.store.logger.Warn("could not reopen read transaction", "error", beginErr)
		return errors.Join(err, beginErr)
	}
	s.tx = tx
	return err
}

func (s *pgSnapshot) sessions(ctx context.Context, q string) ([]schema.ScrapingSession, error) {
	var out []schema.ScrapingSession
	err := s.query(ctx, q, nil, func(rows pgx.Rows) error {
		var (
			skipped int
			err     error
		)
		out, skipped, err = scanSessions(rows, false, s.store.logger)
		s.unreadable += skipped
		return err
	})
	return out, err
}

func (s *pgSnapshot) observations(ctx context.Context, q string, args ...any) ([]schema.Observation, error) {
	var out []schema.Observation
	err := s.query(ctx, q, args, func(rows pgx.Rows) error {
		var (
			skipped int
			err     error
		)
		out, skipped, err = scanObservations(rows, false, s.store.logger)
		s.unreadable += skipped
		return err
	})
	return out, err
}

// UnreadableRows returns how many rows this snapshot dropped because they could not be scanned.
func (s *pgSnapshot) UnreadableRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadable
}

func (s *pgSnapshot) LatestCompletedSession(ctx context.Context) (*schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.latestCompletedSessionQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load latest completed session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (s *pgSnapshot) LatestSession(ctx context.Context) (*schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.latestSessionQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load latest session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (s *pgSnapshot) CompletedSessions(ctx context.Context) ([]schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.completedSessionsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load completed sessions: %w", err)
	}
	return sessions, nil
}

func (s *pgSnapshot) ObservationsBetween(ctx context.Context, start, end time.Time) ([]schema.Observation, error) {
	obs, err := s.observations(ctx, s.store.dialect.observationsBetweenQuery(), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load products between %s and %s: %w",
			start.Format(contract.DateTimeFormat), end.Format(contract.DateTimeFormat), err)
	}
	return obs, nil
}

func (s *pgSnapshot) CategorizedObservations(ctx context.Context) ([]schema.Observation, error) {
	obs, err := s.observations(ctx, s.store.dialect.categorizedObservationsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load categorized products: %w", err)
	}
	return obs, nil
}

// SessionHistory buckets in-stock rows per completed session in SQL.
// Sessions with unusable bounds or an undecodable mapping are skipped and reported.
func (s *pgSnapshot) SessionHistory(ctx context.Context) ([]schema.StockHistoryPoint, []int64, error) {
	var (
		points  []schema.StockHistoryPoint
		skipped []int64
	)
	err := s.query(ctx, s.store.dialect.sessionHistoryQuery(), nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var (
				id         int64
				start, end *time.Time
				total      int64
				raw        *string
			)
			if err := rows.Scan(&id, &start, &end, &total, &raw); err != nil {
				return fmt.Errorf("failed to scan session bucket: %w", err)
			}
			sess := schema.ScrapingSession{ID: id, Start: start, End: end}
			if !sess.Usable() {
				skipped = append(skipped, id)
				continue
			}
			counts, err := decodeCategoryCounts(raw)
			if err != nil {
				s.store.logger.Warn("skipping session with malformed category mapping", "session_id", id, "error", err)
				skipped = append(skipped, id)
				continue
			}
			uncategorized := int(total) - counts.Total()
			if uncategorized < 0 {
				s.store.logger.Warn("skipping session whose category counts exceed its total", "session_id", id, "total", total)
				skipped = append(skipped, id)
				continue
			}
			points = append(points, schema.StockHistoryPoint{
				BucketTime:           *start,
				TotalInStock:         int(total),
				CategoryCounts:       counts,
				UncategorizedInStock: uncategorized,
				SessionID:            id,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bucket history per session: %w", err)
	}
	return points, skipped, nil
}

// HourlyHistory buckets categorized in-stock rows per hour in SQL.
// Rows arrive ordered by bucket, so consecutive rows fold into one point.
func (s *pgSnapshot) HourlyHistory(ctx context.Context) ([]schema.StockHistoryPoint, error) {
	var points []schema.StockHistoryPoint
	err := s.query(ctx, s.store.dialect.hourlyHistoryQuery(), nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var (
				bucket   time.Time
				category string
				count    int64
			)
			if err := rows.Scan(&bucket, &category, &count); err != nil {
				return fmt.Errorf("failed to scan hourly bucket: %w", err)
			}
			if count <= 0 {
				continue
			}
			if n := len(points); n == 0 || !points[n-1].BucketTime.Equal(bucket) {
				points = append(points, schema.StockHistoryPoint{BucketTime: bucket, CategoryCounts: schema.CategoryCounts{}})
			}
			p := &points[len(points)-1]
			p.CategoryCounts[category] += int(count)
			p.TotalInStock += int(count)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bucket history per hour: %w", err)
	}
	return points, nil
}

// Close rolls back the transaction, returning its connection to the pool.
func (s *pgSnapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback(context.Background())
	s.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back snapshot: %w", err)
	}
	return nil
}
