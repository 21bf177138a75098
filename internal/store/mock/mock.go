package mock

import (
	"context"
	"time"

	"github.com/livp123/proxylens/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockPerformanceStore is a mock implementation of the PerformanceStore interface
type MockPerformanceStore struct {
	mock.Mock
}

func (m *MockPerformanceStore) SlowRequests(ctx context.Context, since time.Time, limit int) ([]store.SlowRequestEntry, error) {
	args := m.Called(ctx, since, limit)
	entries, _ := args.Get(0).([]store.SlowRequestEntry)
	return entries, args.Error(1)
}

func (m *MockPerformanceStore) Domains(ctx context.Context) ([]store.DomainInfo, error) {
	args := m.Called(ctx)
	domains, _ := args.Get(0).([]store.DomainInfo)
	return domains, args.Error(1)
}

func (m *MockPerformanceStore) Close() {
	m.Called()
}
