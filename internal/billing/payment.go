package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

// PaymentInput describes a payment event against an invoice.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Reference string
	Date      time.Time
}

// PaymentApplier is the only writer of AmountPaid.
type PaymentApplier struct {
	ledger *Ledger
}

// NewPaymentApplier creates a PaymentApplier that recomputes through ledger.
func NewPaymentApplier(ledger *Ledger) *PaymentApplier {
	return &PaymentApplier{ledger: ledger}
}

// Apply records the payment, recomputes the balance and evaluates the status
// transition. Overpayment is accepted and leaves a negative balance.
func (a *PaymentApplier) Apply(inv *domain.Invoice, in PaymentInput, now time.Time) (*domain.PaymentRecord, error) {
	amount := roundLedger(in.Amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidPayment)
	}
	if inv.Status == domain.InvoiceStatusCancelled {
		return nil, fmt.Errorf("%w: invoice is cancelled", domain.ErrInvalidPayment)
	}
	method := in.Method
	if method == "" {
		method = domain.PaymentOther
	}
	if !domain.ValidPaymentMethods[method] {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidPayment, in.Method)
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}
	record := domain.PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount,
		Date:      date,
		Method:    method,
		Reference: strings.TrimSpace(in.Reference),
	}

	inv.PaymentHistory = append(inv.PaymentHistory, record)
	inv.AmountPaid = inv.AmountPaid.Add(record.Amount)
	a.ledger.Recompute(inv)
	a.ledger.EvaluateStatus(inv, now)
	return &record, nil
}
