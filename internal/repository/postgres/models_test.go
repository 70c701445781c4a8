package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/domain"
)

func TestInvoiceRow_RoundTrip(t *testing.T) {
	customer := uuid.New()
	sent := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	inv := &domain.Invoice{
		ID:         uuid.New(),
		Number:     "INV-2026-0007",
		Status:     domain.InvoiceStatusSent,
		IssueDate:  sent,
		DueDate:    sent.AddDate(0, 0, 30),
		Currency:   "JPY",
		CustomerID: &customer,
		LineItems: []domain.LineItem{{
			ID:        uuid.New(),
			Kind:      domain.LineItemShipping,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(1400),
			Amount:    decimal.NewFromInt(1400),
			Total:     decimal.NewFromInt(1400),
		}},
		Discount: &domain.Discount{Type: domain.DiscountFixed, Value: decimal.NewFromInt(100)},
		Total:    decimal.NewFromInt(1300),
		PaymentHistory: []domain.PaymentRecord{{
			ID:     uuid.New(),
			Amount: decimal.NewFromInt(300),
			Date:   sent,
			Method: domain.PaymentCash,
		}},
		SentAt: &sent,
	}

	row, err := toInvoiceRow(inv)
	require.NoError(t, err)
	assert.Equal(t, "sent", row.Status)

	got, err := fromInvoiceRow(row)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	require.Len(t, got.LineItems, 1)
	assert.True(t, got.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(1400)))
	require.NotNil(t, got.Discount)
	assert.Equal(t, domain.DiscountFixed, got.Discount.Type)
	require.Len(t, got.PaymentHistory, 1)
	assert.Equal(t, domain.PaymentCash, got.PaymentHistory[0].Method)
	assert.Nil(t, got.RateTable)
}

func TestInvoiceRow_EmptyCollectionsEncodeAsArrays(t *testing.T) {
	row, err := toInvoiceRow(&domain.Invoice{ID: uuid.New(), Number: "INV-2026-0001"})
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(row.LineItems))
	assert.JSONEq(t, "[]", string(row.PaymentHistory))
	assert.JSONEq(t, "null", string(row.Discount))
}

func TestFromInvoiceRow_CorruptJSON(t *testing.T) {
	_, err := fromInvoiceRow(&invoiceRow{Number: "INV-2026-0002", LineItems: []byte("{not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INV-2026-0002")
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "invoices_number_key"}

	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", pgErr), "invoices_number_key"))
	assert.True(t, isUniqueViolation(pgErr, ""))
	assert.False(t, isUniqueViolation(pgErr, "other_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.True(t, isUniqueViolation(errors.New(`duplicate key value violates unique constraint "invoices_number_key"`), "invoices_number_key"))
	assert.False(t, isUniqueViolation(errors.New("connection refused"), "invoices_number_key"))
}
