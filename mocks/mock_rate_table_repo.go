package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"cargoledger/internal/domain"
)

// MockRateTableRepo is a mock implementation of port.RateTableRepository.
type MockRateTableRepo struct {
	mock.Mock
}

func (m *MockRateTableRepo) Create(ctx context.Context, rt *domain.RateTable) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockRateTableRepo) GetCurrent(ctx context.Context, at time.Time) (*domain.RateTable, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateTable), args.Error(1)
}
