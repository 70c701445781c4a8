package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
	"cargoledger/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) invoice(args mock.Arguments) (*domain.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Create(ctx context.Context, input *service.CreateInvoiceInput) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, input))
}

func (m *MockInvoiceService) InvoicePackage(ctx context.Context, input *service.InvoicePackageInput) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, input))
}

func (m *MockInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) AddLineItem(ctx context.Context, id uuid.UUID, item billing.LineItemInput) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id, item))
}

func (m *MockInvoiceService) RemoveLineItem(ctx context.Context, id, itemID uuid.UUID) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id, itemID))
}

func (m *MockInvoiceService) SetDiscount(ctx context.Context, id uuid.UUID, discount *domain.Discount) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id, discount))
}

func (m *MockInvoiceService) Send(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) ApplyPayment(ctx context.Context, input *service.ApplyPaymentInput) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, input))
}
