package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"cargoledger/internal/domain"
	"cargoledger/internal/service"
)

// MockCurrencyService is a mock implementation of service.CurrencyService.
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) Snapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateSnapshot), args.Error(1)
}

func (m *MockCurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*service.Conversion, error) {
	args := m.Called(ctx, amount, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Conversion), args.Error(1)
}

func (m *MockCurrencyService) Format(amount decimal.Decimal, code string) string {
	args := m.Called(amount, code)
	return args.String(0)
}

func (m *MockCurrencyService) Round(amount decimal.Decimal, code string) decimal.Decimal {
	args := m.Called(amount, code)
	return args.Get(0).(decimal.Decimal)
}

func (m *MockCurrencyService) Known(code string) bool {
	args := m.Called(code)
	return args.Bool(0)
}

func (m *MockCurrencyService) Currencies() []domain.CurrencyInfo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.CurrencyInfo)
}
