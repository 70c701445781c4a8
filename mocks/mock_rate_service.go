package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cargoledger/internal/domain"
	"cargoledger/internal/service"
)

// MockRateService is a mock implementation of service.RateService.
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) ComputeFees(ctx context.Context, input *service.ComputeFeesInput) (*domain.FeeBreakdown, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeBreakdown), args.Error(1)
}

func (m *MockRateService) CurrentRateTable(ctx context.Context) (*domain.RateTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateTable), args.Error(1)
}

func (m *MockRateService) PublishRateTable(ctx context.Context, rt *domain.RateTable) (*domain.RateTable, error) {
	args := m.Called(ctx, rt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateTable), args.Error(1)
}
