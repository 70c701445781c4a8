package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateTable holds the pricing rules used for one fee computation.
// A table is never mutated once published; newer tables supersede it by EffectiveFrom.
type RateTable struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	BaseRate           decimal.Decimal `db:"base_rate" json:"base_rate"`
	AdditionalRate     decimal.Decimal `db:"additional_rate" json:"additional_rate"`
	CustomsDutyPercent decimal.Decimal `db:"customs_duty_percent" json:"customs_duty_percent"`
	CustomsThreshold   decimal.Decimal `db:"customs_threshold" json:"customs_threshold"`
	StorageFreeDays    int             `db:"storage_free_days" json:"storage_free_days"`
	StorageDailyRate   decimal.Decimal `db:"storage_daily_rate" json:"storage_daily_rate"`
	BaseCurrency       string          `db:"base_currency" json:"base_currency"`
	EffectiveFrom      time.Time       `db:"effective_from" json:"effective_from"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// Package carries the billable attributes of a package record.
// DaysInStorage wins over ReceivedAt when both are present.
type Package struct {
	Reference        string          `json:"reference"`
	Weight           float64         `json:"weight"`
	DeclaredValue    decimal.Decimal `json:"declared_value"`
	DeclaredCurrency string          `json:"declared_currency,omitempty"`
	DaysInStorage    *int            `json:"days_in_storage,omitempty"`
	ReceivedAt       *time.Time      `json:"received_at,omitempty"`
}

// FeeBreakdown is the set of charges computed for a package, in Currency.
type FeeBreakdown struct {
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	StorageFee    decimal.Decimal `json:"storage_fee"`
	CustomsDuty   decimal.Decimal `json:"customs_duty"`
	Currency      string          `json:"currency"`
	Weight        float64         `json:"weight"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	DaysInStorage int             `json:"days_in_storage"`
}

// Total returns the sum of the three charge components.
func (f FeeBreakdown) Total() decimal.Decimal {
	return f.ShippingCost.Add(f.StorageFee).Add(f.CustomsDuty)
}

// LineItem is a single invoice charge. Amount, TaxAmount and Total are derived.
type LineItem struct {
	ID             uuid.UUID       `json:"id"`
	Kind           LineItemKind    `json:"kind"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Amount         decimal.Decimal `json:"amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Discount is either a percentage of the subtotal or a fixed currency amount.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// PaymentRecord is an immutable entry in an invoice's payment history.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// Invoice is the payable document. Totals are owned by the billing ledger.
type Invoice struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	Status         InvoiceStatus   `json:"status"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        time.Time       `json:"due_date"`
	Currency       string          `json:"currency"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	PackageRef     string          `json:"package_ref,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	LineItems      []LineItem      `json:"line_items"`
	Discount       *Discount       `json:"discount,omitempty"`
	RateTable      *RateTable      `json:"rate_table,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	PaymentHistory []PaymentRecord `json:"payment_history"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CurrencyInfo describes how amounts in a currency are displayed.
// Pattern uses the {symbol} and {amount} placeholders.
type CurrencyInfo struct {
	Code          string `json:"code"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int32  `json:"decimal_places"`
	Pattern       string `json:"pattern"`
}

// RateSnapshot is a point-in-time mapping of currency code to rate relative to Base.
type RateSnapshot struct {
	Base    string                     `json:"base"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	TakenAt time.Time                  `json:"taken_at"`
}

// Age reports how old the snapshot is at now.
func (s *RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}
