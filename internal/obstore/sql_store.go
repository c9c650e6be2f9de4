package obstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// SQLStore reads observations through database/sql on any supported backend.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

var _ contract.ObservationStore = &SQLStore{} // Compile-time check

// NewSQLStore opens a store for the backend. schemaName only applies to PostgreSQL;
// MySQL reads the database named in the DSN and SQLite has no schemas.
func NewSQLStore(ctx context.Context, backend schema.DatabaseBackend, connStr, schemaName string, logger *slog.Logger) (*SQLStore, error) {
	db, err := OpenDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}
	return NewSQLStoreFromDB(db, backend, schemaName, logger), nil
}

// OpenSQLStore opens a store without connecting, so a server that is down at
// startup surfaces as an unavailable store on the first Acquire instead.
func OpenSQLStore(backend schema.DatabaseBackend, connStr, schemaName string, logger *slog.Logger) (*SQLStore, error) {
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	return NewSQLStoreFromDB(db, backend, schemaName, logger), nil
}

// NewSQLStoreFromDB wraps an open handle. The store takes ownership of db.
func NewSQLStoreFromDB(db *sql.DB, backend schema.DatabaseBackend, schemaName string, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	if backend != schema.PostgreSQLBackend {
		schemaName = ""
	}
	return &SQLStore{
		db:      db,
		dialect: dialect{backend: backend, schemaName: schemaName},
		logger:  logger.With("backend", string(backend)),
	}
}

// Backend returns the database flavor.
func (s *SQLStore) Backend() schema.DatabaseBackend {
	return s.dialect.backend
}

// Close closes the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) txOptions() *sql.TxOptions {
	// SQLite runs with a single connection and a plain transaction.
	return &sql.TxOptions{ReadOnly: s.dialect.backend != schema.SQLiteBackend}
}

// Acquire pins one pooled connection and opens a read transaction on it.
func (s *SQLStore) Acquire(ctx context.Context) (contract.Snapshot, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	tx, err := conn.BeginTx(ctx, s.txOptions())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return &sqlSnapshot{store: s, conn: conn, tx: tx}, nil
}

// Status queries the server version and reports table sizes.
func (s *SQLStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.dialect.backend),
		Schema:     s.dialect.schemaName,
		TableSizes: make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx, s.dialect.versionQuery()).Scan(&status.ServerVersion); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("failed to query server version: %w", err)
	}
	status.Connected = true

	if s.dialect.schemaName == "" {
		status.SchemaExists = true
	} else {
		var n int64
		if err := s.db.QueryRowContext(ctx, s.dialect.schemaExistsQuery(), s.dialect.schemaName).Scan(&n); err != nil {
			status.Error = err.Error()
			return status, fmt.Errorf("failed to check schema %q: %w", s.dialect.schemaName, err)
		}
		status.SchemaExists = n > 0
	}
	if !status.SchemaExists {
		status.Error = fmt.Sprintf("schema %q does not exist", s.dialect.schemaName)
		return status, nil
	}

	for _, table := range []string{productsTable, sessionsTable} {
		var n int64
		if err := s.db.QueryRowContext(ctx, s.dialect.countQuery(table)).Scan(&n); err != nil {
			s.logger.Warn("table is not readable", "table", table, "error", err)
			status.TableSizes[table] = -1
			continue
		}
		status.TableSizes[table] = n
	}

	if status.TableSizes[sessionsTable] > 0 {
		rows, err := s.db.QueryContext(ctx, s.dialect.latestSessionQuery())
		if err == nil {
			sessions, _, scanErr := scanSessions(rows, s.textualTime(), s.logger)
			_ = rows.Close()
			if scanErr == nil && len(sessions) > 0 {
				status.LastSession = sessions[0].Start
			}
		}
	}
	return status, nil
}

func (s *SQLStore) textualTime() bool {
	return s.dialect.backend == schema.SQLiteBackend
}

// sqlSnapshot is one connection plus its current read transaction.
type sqlSnapshot struct {
	store *SQLStore
	conn  *sql.Conn
	tx    *sql.Tx

	mu         sync.Mutex
	closed     bool
	unreadable int
}

var (
	_ contract.Snapshot       = &sqlSnapshot{} // Compile-time check
	_ contract.UnreadableRows = &sqlSnapshot{} // Compile-time check
)

// query runs fn inside the current transaction. On failure the transaction is
// rolled back and a fresh one is opened so later reads see a clean connection.
func (s *sqlSnapshot) query(ctx context.Context, q string, args []any, fn func(rows *sql.Rows) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.tx == nil {
		return ErrSnapshotClosed
	}

	err := func() error {
		rows, err := s.tx.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		return fn(rows)
	}()
	if err == nil {
		return nil
	}

	if rbErr := s.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		s.store.logger.Warn("rollback after failed query did not complete", "error", rbErr)
	}
	s.tx = nil
	tx, beginErr := s.conn.BeginTx(context.WithoutCancel(ctx), s.store.txOptions())
	if beginErr != nil {
		s.store.logger.Warn("could not reopen read transaction", "error", beginErr)
		return errors.Join(err, beginErr)
	}
	s.tx = tx
	return err
}

func (s *sqlSnapshot) sessions(ctx context.Context, q string) ([]schema.ScrapingSession, error) {
	var out []schema.ScrapingSession
	err := s.query(ctx, q, nil, func(rows *sql.Rows) error {
		var (
			skipped int
			err     error
		)
		out, skipped, err = scanSessions(rows, s.store.textualTime(), s.store.logger)
		s.unreadable += skipped
		return err
	})
	return out, err
}

func (s *sqlSnapshot) observations(ctx context.Context, q string, args ...any) ([]schema.Observation, error) {
	var out []schema.Observation
	err := s.query(ctx, q, args, func(rows *sql.Rows) error {
		var (
			skipped int
			err     error
		)
		out, skipped, err = scanObservations(rows, s.store.textualTime(), s.store.logger)
		s.unreadable += skipped
		return err
	})
	return out, err
}

// UnreadableRows returns how many rows this snapshot dropped because they could not be scanned.
func (s *sqlSnapshot) UnreadableRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadable
}

func (s *sqlSnapshot) LatestCompletedSession(ctx context.Context) (*schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.latestCompletedSessionQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load latest completed session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (s *sqlSnapshot) LatestSession(ctx context.Context) (*schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.latestSessionQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load latest session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (s *sqlSnapshot) CompletedSessions(ctx context.Context) ([]schema.ScrapingSession, error) {
	sessions, err := s.sessions(ctx, s.store.dialect.completedSessionsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load completed sessions: %w", err)
	}
	return sessions, nil
}

func (s *sqlSnapshot) ObservationsBetween(ctx context.Context, start, end time.Time) ([]schema.Observation, error) {
	d := s.store.dialect
	obs, err := s.observations(ctx, d.observationsBetweenQuery(), d.timeArg(start), d.timeArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to load products between %s and %s: %w",
			start.Format(contract.DateTimeFormat), end.Format(contract.DateTimeFormat), err)
	}
	return obs, nil
}

func (s *sqlSnapshot) CategorizedObservations(ctx context.Context) ([]schema.Observation, error) {
	obs, err := s.observations(ctx, s.store.dialect.categorizedObservationsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load categorized products: %w", err)
	}
	return obs, nil
}

// Close rolls back and releases the connection. It is safe to call twice.
func (s *sqlSnapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var rbErr error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rbErr = fmt.Errorf("failed to roll back snapshot: %w", err)
		}
		s.tx = nil
	}
	return errors.Join(rbErr, s.conn.Close())
}
