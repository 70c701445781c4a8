package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

// invoiceRow mirrors the invoices table. Collections and nested values are
// stored as JSONB documents.
type invoiceRow struct {
	ID             uuid.UUID       `db:"id"`
	Number         string          `db:"number"`
	Status         string          `db:"status"`
	IssueDate      time.Time       `db:"issue_date"`
	DueDate        time.Time       `db:"due_date"`
	Currency       string          `db:"currency"`
	CustomerID     *uuid.UUID      `db:"customer_id"`
	PackageRef     string          `db:"package_ref"`
	Notes          string          `db:"notes"`
	LineItems      json.RawMessage `db:"line_items"`
	Discount       json.RawMessage `db:"discount"`
	RateTable      json.RawMessage `db:"rate_table"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	TaxTotal       decimal.Decimal `db:"tax_total"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	Total          decimal.Decimal `db:"total"`
	AmountPaid     decimal.Decimal `db:"amount_paid"`
	BalanceDue     decimal.Decimal `db:"balance_due"`
	PaymentHistory json.RawMessage `db:"payment_history"`
	SentAt         *time.Time      `db:"sent_at"`
	PaidAt         *time.Time      `db:"paid_at"`
	CancelledAt    *time.Time      `db:"cancelled_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func toInvoiceRow(inv *domain.Invoice) (*invoiceRow, error) {
	items := inv.LineItems
	if items == nil {
		items = []domain.LineItem{}
	}
	payments := inv.PaymentHistory
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}

	lineItems, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding line items: %w", err)
	}
	history, err := json.Marshal(payments)
	if err != nil {
		return nil, fmt.Errorf("encoding payment history: %w", err)
	}
	discount, err := json.Marshal(inv.Discount)
	if err != nil {
		return nil, fmt.Errorf("encoding discount: %w", err)
	}
	rateTable, err := json.Marshal(inv.RateTable)
	if err != nil {
		return nil, fmt.Errorf("encoding rate table: %w", err)
	}

	return &invoiceRow{
		ID:             inv.ID,
		Number:         inv.Number,
		Status:         string(inv.Status),
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Currency:       inv.Currency,
		CustomerID:     inv.CustomerID,
		PackageRef:     inv.PackageRef,
		Notes:          inv.Notes,
		LineItems:      lineItems,
		Discount:       discount,
		RateTable:      rateTable,
		Subtotal:       inv.Subtotal,
		TaxTotal:       inv.TaxTotal,
		DiscountAmount: inv.DiscountAmount,
		Total:          inv.Total,
		AmountPaid:     inv.AmountPaid,
		BalanceDue:     inv.BalanceDue,
		PaymentHistory: history,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		CancelledAt:    inv.CancelledAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}, nil
}

func fromInvoiceRow(r *invoiceRow) (*domain.Invoice, error) {
	inv := &domain.Invoice{
		ID:             r.ID,
		Number:         r.Number,
		Status:         domain.InvoiceStatus(r.Status),
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		Currency:       r.Currency,
		CustomerID:     r.CustomerID,
		PackageRef:     r.PackageRef,
		Notes:          r.Notes,
		Subtotal:       r.Subtotal,
		TaxTotal:       r.TaxTotal,
		DiscountAmount: r.DiscountAmount,
		Total:          r.Total,
		AmountPaid:     r.AmountPaid,
		BalanceDue:     r.BalanceDue,
		SentAt:         r.SentAt,
		PaidAt:         r.PaidAt,
		CancelledAt:    r.CancelledAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := decodeJSON(r.LineItems, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("decoding line items of %s: %w", r.Number, err)
	}
	if err := decodeJSON(r.PaymentHistory, &inv.PaymentHistory); err != nil {
		return nil, fmt.Errorf("decoding payment history of %s: %w", r.Number, err)
	}
	if err := decodeJSON(r.Discount, &inv.Discount); err != nil {
		return nil, fmt.Errorf("decoding discount of %s: %w", r.Number, err)
	}
	if err := decodeJSON(r.RateTable, &inv.RateTable); err != nil {
		return nil, fmt.Errorf("decoding rate table of %s: %w", r.Number, err)
	}
	return inv, nil
}

func decodeJSON(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
