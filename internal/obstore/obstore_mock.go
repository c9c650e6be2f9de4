package obstore

import (
	"context"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockObservationStore is a mock implementation of ObservationStore for testing.
type MockObservationStore struct {
	mock.Mock
}

var _ contract.ObservationStore = &MockObservationStore{} // Compile-time check

// Acquire implements the ObservationStore interface.
func (m *MockObservationStore) Acquire(ctx context.Context) (contract.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(contract.Snapshot)
	return snap, args.Error(1)
}

// Status implements the ObservationStore interface.
func (m *MockObservationStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Backend implements the ObservationStore interface.
func (m *MockObservationStore) Backend() schema.DatabaseBackend {
	args := m.Called()
	return args.Get(0).(schema.DatabaseBackend)
}

// Close implements the ObservationStore interface.
func (m *MockObservationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSnapshot is a mock implementation of Snapshot for testing.
type MockSnapshot struct {
	mock.Mock
}

var _ contract.Snapshot = &MockSnapshot{} // Compile-time check

// LatestCompletedSession implements the Snapshot interface.
func (m *MockSnapshot) LatestCompletedSession(ctx context.Context) (*schema.ScrapingSession, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*schema.ScrapingSession)
	return s, args.Error(1)
}

// LatestSession implements the Snapshot interface.
func (m *MockSnapshot) LatestSession(ctx context.Context) (*schema.ScrapingSession, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*schema.ScrapingSession)
	return s, args.Error(1)
}

// CompletedSessions implements the Snapshot interface.
func (m *MockSnapshot) CompletedSessions(ctx context.Context) ([]schema.ScrapingSession, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]schema.ScrapingSession)
	return s, args.Error(1)
}

// ObservationsBetween implements the Snapshot interface.
func (m *MockSnapshot) ObservationsBetween(ctx context.Context, start, end time.Time) ([]schema.Observation, error) {
	args := m.Called(ctx, start, end)
	o, _ := args.Get(0).([]schema.Observation)
	return o, args.Error(1)
}

// CategorizedObservations implements the Snapshot interface.
func (m *MockSnapshot) CategorizedObservations(ctx context.Context) ([]schema.Observation, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).([]schema.Observation)
	return o, args.Error(1)
}

// Close implements the Snapshot interface.
func (m *MockSnapshot) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPushdownSnapshot is a MockSnapshot that also buckets history in the database.
type MockPushdownSnapshot struct {
	MockSnapshot
}

var _ contract.HistoryPushdown = &MockPushdownSnapshot{} // Compile-time check

// SessionHistory implements the HistoryPushdown interface.
func (m *MockPushdownSnapshot) SessionHistory(ctx context.Context) ([]schema.StockHistoryPoint, []int64, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]schema.StockHistoryPoint)
	s, _ := args.Get(1).([]int64)
	return p, s, args.Error(2)
}

// HourlyHistory implements the HistoryPushdown interface.
func (m *MockPushdownSnapshot) HourlyHistory(ctx context.Context) ([]schema.StockHistoryPoint, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]schema.StockHistoryPoint)
	return p, args.Error(1)
}
