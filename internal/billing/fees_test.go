package billing_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testRateTable() *domain.RateTable {
	return &domain.RateTable{
		BaseRate:           dec("700"),
		AdditionalRate:     dec("350"),
		CustomsDutyPercent: dec("15"),
		CustomsThreshold:   dec("100"),
		StorageFreeDays:    7,
		StorageDailyRate:   dec("50"),
		BaseCurrency:       "JPY",
	}
}

type recordingSink struct {
	events []billing.Anomaly
}

func (s *recordingSink) Report(a billing.Anomaly) {
	s.events = append(s.events, a)
}

// --- ShippingCost ---

func TestFeeCalculator_ShippingCost(t *testing.T) {
	calc := billing.NewFeeCalculator(nil)
	rates := testRateTable()

	tests := []struct {
		weight float64
		want   string
	}{
		{0.5, "700"},
		{1.0, "700"},
		{1.4, "1050"},
		{2.0, "1050"},
		{3.0, "1400"},
		{0, "0"},
	}
	for _, tt := range tests {
		assertDec(t, tt.want, calc.ShippingCost(tt.weight, rates), "weight %v", tt.weight)
	}
}

func TestFeeCalculator_ShippingCost_NonFiniteWeightIsClampedAndReported(t *testing.T) {
	sink := &recordingSink{}
	calc := billing.NewFeeCalculator(sink)
	rates := testRateTable()

	assertDec(t, "0", calc.ShippingCost(math.NaN(), rates))
	assertDec(t, "0", calc.ShippingCost(math.Inf(1), rates))
	assertDec(t, "0", calc.ShippingCost(-2, rates))

	require.Len(t, sink.events, 3)
	for _, ev := range sink.events {
		assert.Equal(t, "shipping_cost", ev.Op)
		assert.Equal(t, "weight", ev.Field)
	}
	assert.Equal(t, "NaN", sink.events[0].Value)
}

// --- StorageFee ---

func TestFeeCalculator_StorageFee(t *testing.T) {
	calc := billing.NewFeeCalculator(nil)
	rates := testRateTable()

	assertDec(t, "0", calc.StorageFee(0, rates))
	assertDec(t, "0", calc.StorageFee(7, rates))
	assertDec(t, "50", calc.StorageFee(8, rates))
	assertDec(t, "150", calc.StorageFee(10, rates))
}

func TestFeeCalculator_StorageFee_NegativeDaysReported(t *testing.T) {
	sink := &recordingSink{}
	calc := billing.NewFeeCalculator(sink)

	assertDec(t, "0", calc.StorageFee(-3, testRateTable()))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "-3", sink.events[0].Value)
}

// --- CustomsDuty ---

func TestFeeCalculator_CustomsDuty(t *testing.T) {
	calc := billing.NewFeeCalculator(nil)
	rates := testRateTable()

	assertDec(t, "0", calc.CustomsDuty(dec("50"), rates))
	assertDec(t, "0", calc.CustomsDuty(dec("100"), rates))
	assertDec(t, "30", calc.CustomsDuty(dec("200"), rates))
	assertDec(t, "15.15", calc.CustomsDuty(dec("101"), rates))
}

func TestFeeCalculator_CustomsDuty_NegativeValueReported(t *testing.T) {
	sink := &recordingSink{}
	calc := billing.NewFeeCalculator(sink)

	assertDec(t, "0", calc.CustomsDuty(dec("-500"), testRateTable()))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "declared_value", sink.events[0].Field)
}

// --- Compute ---

func TestFeeCalculator_Compute_ExplicitDays(t *testing.T) {
	calc := billing.NewFeeCalculator(nil)
	days := 10

	fb := calc.Compute(domain.Package{
		Reference:     "PKG-1",
		Weight:        1.4,
		DeclaredValue: dec("200"),
		DaysInStorage: &days,
	}, testRateTable(), time.Now())

	assertDec(t, "1050", fb.ShippingCost)
	assertDec(t, "150", fb.StorageFee)
	assertDec(t, "30", fb.CustomsDuty)
	assertDec(t, "1230", fb.Total())
	assert.Equal(t, "JPY", fb.Currency)
	assert.Equal(t, 10, fb.DaysInStorage)
}

func TestFeeCalculator_Compute_DaysFromReceivedAt(t *testing.T) {
	calc := billing.NewFeeCalculator(nil)
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	received := now.Add(-9*24*time.Hour - time.Hour)

	fb := calc.Compute(domain.Package{Weight: 1, ReceivedAt: &received}, testRateTable(), now)

	assert.Equal(t, 9, fb.DaysInStorage)
	assertDec(t, "100", fb.StorageFee)
}

func TestDaysInStorage_FutureIsZero(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, billing.DaysInStorage(now.Add(time.Hour), now))
	assert.Equal(t, 1, billing.DaysInStorage(now.Add(-25*time.Hour), now))
}

// --- ValidateRateTable ---

func TestValidateRateTable(t *testing.T) {
	assert.NoError(t, billing.ValidateRateTable(testRateTable()))

	bad := testRateTable()
	bad.BaseRate = dec("-1")
	assert.ErrorIs(t, billing.ValidateRateTable(bad), domain.ErrValidation)

	bad = testRateTable()
	bad.CustomsDutyPercent = dec("150")
	assert.ErrorIs(t, billing.ValidateRateTable(bad), domain.ErrValidation)

	bad = testRateTable()
	bad.StorageFreeDays = -1
	assert.ErrorIs(t, billing.ValidateRateTable(bad), domain.ErrValidation)

	bad = testRateTable()
	bad.BaseCurrency = "YEN!"
	assert.ErrorIs(t, billing.ValidateRateTable(bad), domain.ErrValidation)
}
