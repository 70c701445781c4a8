package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"cargoledger/internal/billing"
	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
	"cargoledger/internal/repository/memory"
	"cargoledger/internal/service"
	"cargoledger/mocks"
)

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testRates() domain.RateTable {
	return domain.RateTable{
		BaseRate:           dec("700"),
		AdditionalRate:     dec("350"),
		CustomsDutyPercent: dec("15"),
		CustomsThreshold:   dec("10000"),
		StorageFreeDays:    7,
		StorageDailyRate:   dec("50"),
		BaseCurrency:       "JPY",
		EffectiveFrom:      fixedNow.AddDate(0, -1, 0),
	}
}

func testSnapshot(takenAt time.Time) *domain.RateSnapshot {
	return &domain.RateSnapshot{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"JPY": dec("150"),
			"EUR": dec("0.9"),
			"PHP": dec("56"),
		},
		TakenAt: takenAt,
	}
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		DefaultTaxPercent: decimal.Zero,
		PaymentTermsDays:  30,
		NumberAttempts:    5,
		UpdateAttempts:    3,
		DefaultCurrency:   "JPY",
	}
}

type fixture struct {
	now      time.Time
	provider *mocks.MockRateSnapshotProvider
	invoices port.InvoiceRepository
	rateRepo port.RateTableRepository
	currency service.CurrencyService
	rates    service.RateService
	svc      service.InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:      fixedNow,
		provider: new(mocks.MockRateSnapshotProvider),
		invoices: memory.NewInvoiceRepo(),
		rateRepo: memory.NewRateTableRepo(testRates()),
	}
	log := zap.NewNop()
	sink := billing.NewLogSink(log)
	f.currency = service.NewCurrencyService(f.provider, billing.NewConverter(sink, nil), 0, clock(&f.now), log)
	f.rates = service.NewRateService(f.rateRepo, f.currency, billing.NewFeeCalculator(sink), clock(&f.now), log)
	f.svc = service.NewInvoiceService(f.invoices, f.rates, f.currency, billing.NewLedger(sink), testBillingConfig(), clock(&f.now), log)
	return f
}

func intPtr(v int) *int { return &v }
