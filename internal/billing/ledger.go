package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

// LineItemInput is the caller-controlled part of a line item.
type LineItemInput struct {
	Kind           domain.LineItemKind `json:"kind"`
	Description    string              `json:"description"`
	Quantity       decimal.Decimal     `json:"quantity"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	TaxRatePercent decimal.Decimal     `json:"tax_rate_percent"`
}

// Ledger owns every derived invoice total. Callers mutate invoices only
// through its methods, each of which leaves the invoice recomputed.
type Ledger struct {
	sink AnomalySink
}

// NewLedger creates a Ledger reporting clamps to sink.
func NewLedger(sink AnomalySink) *Ledger {
	return &Ledger{sink: sinkOrDiscard(sink)}
}

// Recompute derives line item amounts, subtotal, tax total, discount, total
// and balance due from the line items, the discount and the amount paid.
// It is idempotent and does nothing once an invoice is cancelled.
func (l *Ledger) Recompute(inv *domain.Invoice) {
	if inv.Status == domain.InvoiceStatusCancelled {
		return
	}

	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		field := fmt.Sprintf("line_items[%d]", i)

		qty := nonNegative(l.sink, "recompute", field+".quantity", item.Quantity)
		price := nonNegative(l.sink, "recompute", field+".unit_price", item.UnitPrice)
		rate := clampRange(l.sink, "recompute", field+".tax_rate_percent", item.TaxRatePercent, decimal.Zero, hundred)

		item.Amount = roundLedger(qty.Mul(price))
		item.TaxAmount = roundLedger(item.Amount.Mul(rate).Div(hundred))
		item.Total = item.Amount.Add(item.TaxAmount)

		subtotal = subtotal.Add(item.Amount)
		taxTotal = taxTotal.Add(item.TaxAmount)
	}
	inv.Subtotal = subtotal
	inv.TaxTotal = taxTotal
	inv.DiscountAmount = l.discountAmount(inv.Discount, subtotal)

	total := subtotal.Add(taxTotal).Sub(inv.DiscountAmount)
	inv.Total = nonNegative(l.sink, "recompute", "total", total)
	inv.BalanceDue = inv.Total.Sub(inv.AmountPaid)
}

func (l *Ledger) discountAmount(d *domain.Discount, subtotal decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	value := nonNegative(l.sink, "recompute", "discount.value", d.Value)

	var amount decimal.Decimal
	switch d.Type {
	case domain.DiscountPercentage:
		amount = roundLedger(subtotal.Mul(value).Div(hundred))
	case domain.DiscountFixed:
		amount = roundLedger(value)
	default:
		l.sink.Report(Anomaly{Op: "recompute", Field: "discount.type", Value: string(d.Type), Reason: "unknown discount type ignored"})
		return decimal.Zero
	}
	return clampRange(l.sink, "recompute", "discount_amount", amount, decimal.Zero, subtotal)
}

// AddLineItem validates in, appends it to a draft invoice and recomputes.
func (l *Ledger) AddLineItem(inv *domain.Invoice, in LineItemInput) (*domain.LineItem, error) {
	if err := checkEditable(inv); err != nil {
		return nil, err
	}
	if err := ValidateLineItem(in); err != nil {
		return nil, err
	}
	inv.LineItems = append(inv.LineItems, newLineItem(in))
	l.Recompute(inv)
	return &inv.LineItems[len(inv.LineItems)-1], nil
}

// RemoveLineItem drops the line item with the given id from a draft invoice.
func (l *Ledger) RemoveLineItem(inv *domain.Invoice, itemID uuid.UUID) error {
	if err := checkEditable(inv); err != nil {
		return err
	}
	for i := range inv.LineItems {
		if inv.LineItems[i].ID == itemID {
			inv.LineItems = append(inv.LineItems[:i], inv.LineItems[i+1:]...)
			l.Recompute(inv)
			return nil
		}
	}
	return domain.ErrLineItemNotFound
}

// SetDiscount replaces the discount of a draft invoice. A nil discount clears it.
func (l *Ledger) SetDiscount(inv *domain.Invoice, d *domain.Discount) error {
	if err := checkEditable(inv); err != nil {
		return err
	}
	if err := ValidateDiscount(d); err != nil {
		return err
	}
	if d != nil {
		cp := *d
		d = &cp
	}
	inv.Discount = d
	l.Recompute(inv)
	return nil
}

// Send finalizes a draft invoice. It must carry at least one line item.
func (l *Ledger) Send(inv *domain.Invoice, now time.Time) error {
	switch inv.Status {
	case domain.InvoiceStatusDraft:
	case domain.InvoiceStatusCancelled:
		return domain.ErrInvoiceCancelled
	default:
		return fmt.Errorf("%w: cannot send a %s invoice", domain.ErrInvalidTransition, inv.Status)
	}
	if len(inv.LineItems) == 0 {
		return fmt.Errorf("%w: invoice has no line items", domain.ErrValidation)
	}
	inv.Status = domain.InvoiceStatusSent
	inv.SentAt = &now
	l.Recompute(inv)
	l.EvaluateStatus(inv, now)
	return nil
}

// Cancel moves an unpaid invoice to the terminal cancelled state.
func (l *Ledger) Cancel(inv *domain.Invoice, now time.Time) error {
	switch inv.Status {
	case domain.InvoiceStatusCancelled:
		return domain.ErrInvoiceCancelled
	case domain.InvoiceStatusPaid:
		return fmt.Errorf("%w: cannot cancel a paid invoice", domain.ErrInvalidTransition)
	}
	inv.Status = domain.InvoiceStatusCancelled
	inv.CancelledAt = &now
	return nil
}

// EvaluateStatus applies the payment and due date transitions:
// sent or overdue with nothing left to pay becomes paid, and sent past its
// due date with a positive balance becomes overdue. It reports whether the
// status changed.
func (l *Ledger) EvaluateStatus(inv *domain.Invoice, now time.Time) bool {
	settled := !inv.BalanceDue.IsPositive()
	switch inv.Status {
	case domain.InvoiceStatusSent:
		if settled {
			markPaid(inv, now)
			return true
		}
		if now.After(inv.DueDate) {
			inv.Status = domain.InvoiceStatusOverdue
			return true
		}
	case domain.InvoiceStatusOverdue:
		if settled {
			markPaid(inv, now)
			return true
		}
	}
	return false
}

func markPaid(inv *domain.Invoice, now time.Time) {
	inv.Status = domain.InvoiceStatusPaid
	inv.PaidAt = &now
}

func checkEditable(inv *domain.Invoice) error {
	switch inv.Status {
	case domain.InvoiceStatusDraft:
		return nil
	case domain.InvoiceStatusCancelled:
		return domain.ErrInvoiceCancelled
	default:
		return fmt.Errorf("%w: status is %s", domain.ErrInvoiceNotEditable, inv.Status)
	}
}

func newLineItem(in LineItemInput) domain.LineItem {
	kind := in.Kind
	if kind == "" {
		kind = domain.LineItemCustom
	}
	return domain.LineItem{
		ID:             uuid.New(),
		Kind:           kind,
		Description:    strings.TrimSpace(in.Description),
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		TaxRatePercent: in.TaxRatePercent,
	}
}

// NewLineItems turns validated inputs into line items with fresh ids.
// Derived fields stay zero until the next Recompute.
func NewLineItems(inputs []LineItemInput) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(inputs))
	for i, in := range inputs {
		if err := ValidateLineItem(in); err != nil {
			return nil, fmt.Errorf("line_items[%d]: %w", i, err)
		}
		items = append(items, newLineItem(in))
	}
	return items, nil
}

// ValidateLineItem rejects inputs that may not enter a ledger.
func ValidateLineItem(in LineItemInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if in.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity must be >= 0", domain.ErrValidation)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price must be >= 0", domain.ErrValidation)
	}
	if in.TaxRatePercent.IsNegative() || in.TaxRatePercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax_rate_percent must be between 0 and 100", domain.ErrValidation)
	}
	switch in.Kind {
	case "", domain.LineItemShipping, domain.LineItemStorage, domain.LineItemCustoms, domain.LineItemCustom:
	default:
		return fmt.Errorf("%w: unknown line item kind %q", domain.ErrValidation, in.Kind)
	}
	return nil
}

// ValidateDiscount rejects negative or untyped discounts. Nil is valid.
func ValidateDiscount(d *domain.Discount) error {
	if d == nil {
		return nil
	}
	if d.Type != domain.DiscountPercentage && d.Type != domain.DiscountFixed {
		return fmt.Errorf("%w: discount type must be percentage or fixed", domain.ErrValidation)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: discount value must be >= 0", domain.ErrValidation)
	}
	return nil
}

// LineItemsFromFees materializes a breakdown as one line item per non-zero
// charge. Shipping and storage carry taxRatePercent; customs duty is untaxed.
func LineItemsFromFees(fb domain.FeeBreakdown, taxRatePercent decimal.Decimal) []LineItemInput {
	one := decimal.NewFromInt(1)
	var items []LineItemInput
	if fb.ShippingCost.IsPositive() {
		items = append(items, LineItemInput{
			Kind:           domain.LineItemShipping,
			Description:    fmt.Sprintf("Shipping, weight %s", decimal.NewFromFloat(fb.Weight).String()),
			Quantity:       one,
			UnitPrice:      fb.ShippingCost,
			TaxRatePercent: taxRatePercent,
		})
	}
	if fb.StorageFee.IsPositive() {
		items = append(items, LineItemInput{
			Kind:           domain.LineItemStorage,
			Description:    fmt.Sprintf("Storage, %d days", fb.DaysInStorage),
			Quantity:       one,
			UnitPrice:      fb.StorageFee,
			TaxRatePercent: taxRatePercent,
		})
	}
	if fb.CustomsDuty.IsPositive() {
		items = append(items, LineItemInput{
			Kind:        domain.LineItemCustoms,
			Description: fmt.Sprintf("Customs duty, declared value %s", fb.DeclaredValue.String()),
			Quantity:    one,
			UnitPrice:   fb.CustomsDuty,
		})
	}
	return items
}
