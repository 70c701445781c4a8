package billing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

// FeeCalculator maps a package and a rate table to a FeeBreakdown.
// All results are in the rate table's base currency.
type FeeCalculator struct {
	sink AnomalySink
}

// NewFeeCalculator creates a FeeCalculator reporting clamps to sink.
func NewFeeCalculator(sink AnomalySink) *FeeCalculator {
	return &FeeCalculator{sink: sinkOrDiscard(sink)}
}

// ShippingCost charges BaseRate for the first whole or partial weight unit
// and AdditionalRate for every further unit, partial units rounded up.
func (c *FeeCalculator) ShippingCost(weight float64, rates *domain.RateTable) decimal.Decimal {
	weight = finiteNonNegative(c.sink, "shipping_cost", "weight", weight)
	if weight == 0 {
		return decimal.Zero
	}
	units := decimal.NewFromFloat(math.Ceil(weight)).Sub(decimal.NewFromInt(1))
	if units.IsNegative() {
		units = decimal.Zero
	}
	cost := rates.BaseRate.Add(units.Mul(rates.AdditionalRate))
	return nonNegative(c.sink, "shipping_cost", "result", cost)
}

// StorageFee charges StorageDailyRate for each day beyond the free period.
func (c *FeeCalculator) StorageFee(daysInStorage int, rates *domain.RateTable) decimal.Decimal {
	daysInStorage = nonNegativeInt(c.sink, "storage_fee", "days_in_storage", daysInStorage)
	if daysInStorage <= rates.StorageFreeDays {
		return decimal.Zero
	}
	billable := decimal.NewFromInt(int64(daysInStorage - rates.StorageFreeDays))
	return nonNegative(c.sink, "storage_fee", "result", billable.Mul(rates.StorageDailyRate))
}

// CustomsDuty charges CustomsDutyPercent of the declared value once it
// exceeds CustomsThreshold. The declared value must be in the base currency.
func (c *FeeCalculator) CustomsDuty(declaredValue decimal.Decimal, rates *domain.RateTable) decimal.Decimal {
	declaredValue = nonNegative(c.sink, "customs_duty", "declared_value", declaredValue)
	if declaredValue.LessThanOrEqual(rates.CustomsThreshold) {
		return decimal.Zero
	}
	duty := declaredValue.Mul(rates.CustomsDutyPercent).Div(hundred)
	return nonNegative(c.sink, "customs_duty", "result", roundLedger(duty))
}

// Compute produces the full breakdown for pkg. When pkg carries no explicit
// day count, days in storage are derived from ReceivedAt relative to now.
func (c *FeeCalculator) Compute(pkg domain.Package, rates *domain.RateTable, now time.Time) domain.FeeBreakdown {
	days := 0
	switch {
	case pkg.DaysInStorage != nil:
		days = *pkg.DaysInStorage
	case pkg.ReceivedAt != nil:
		days = DaysInStorage(*pkg.ReceivedAt, now)
	}

	weight := finiteNonNegative(c.sink, "compute_fees", "weight", pkg.Weight)
	declared := nonNegative(c.sink, "compute_fees", "declared_value", pkg.DeclaredValue)
	days = nonNegativeInt(c.sink, "compute_fees", "days_in_storage", days)

	return domain.FeeBreakdown{
		ShippingCost:  c.ShippingCost(weight, rates),
		StorageFee:    c.StorageFee(days, rates),
		CustomsDuty:   c.CustomsDuty(declared, rates),
		Currency:      rates.BaseCurrency,
		Weight:        weight,
		DeclaredValue: declared,
		DaysInStorage: days,
	}
}

// DaysInStorage returns the number of whole days between receivedAt and now.
// A receivedAt in the future yields 0.
func DaysInStorage(receivedAt, now time.Time) int {
	if !now.After(receivedAt) {
		return 0
	}
	return int(now.Sub(receivedAt) / (24 * time.Hour))
}

// ValidateRateTable rejects tables that would produce negative charges.
func ValidateRateTable(rt *domain.RateTable) error {
	checks := []struct {
		name  string
		value decimal.Decimal
	}{
		{"base_rate", rt.BaseRate},
		{"additional_rate", rt.AdditionalRate},
		{"customs_duty_percent", rt.CustomsDutyPercent},
		{"customs_threshold", rt.CustomsThreshold},
		{"storage_daily_rate", rt.StorageDailyRate},
	}
	for _, ch := range checks {
		if ch.value.IsNegative() {
			return fmt.Errorf("%w: %s must be >= 0", domain.ErrValidation, ch.name)
		}
	}
	if rt.CustomsDutyPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: customs_duty_percent must be <= 100", domain.ErrValidation)
	}
	if rt.StorageFreeDays < 0 {
		return fmt.Errorf("%w: storage_free_days must be >= 0", domain.ErrValidation)
	}
	if len(strings.TrimSpace(rt.BaseCurrency)) != 3 {
		return fmt.Errorf("%w: base_currency must be a 3-letter code", domain.ErrValidation)
	}
	return nil
}
