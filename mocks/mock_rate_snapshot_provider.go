package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cargoledger/internal/domain"
)

// MockRateSnapshotProvider is a mock implementation of port.RateSnapshotProvider.
type MockRateSnapshotProvider struct {
	mock.Mock
}

func (m *MockRateSnapshotProvider) GetSnapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateSnapshot), args.Error(1)
}
