package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/service"
	"cargoledger/mocks"
)

func TestRateService_ComputeFees_CurrentTable(t *testing.T) {
	f := newFixture(t)

	fb, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package: domain.Package{Weight: 2.5, DeclaredValue: dec("20000"), DaysInStorage: intPtr(10)},
	})
	require.NoError(t, err)

	assert.Equal(t, "JPY", fb.Currency)
	assertDec(t, "1400", fb.ShippingCost)
	assertDec(t, "150", fb.StorageFee)
	assertDec(t, "3000", fb.CustomsDuty)
	assertDec(t, "4550", fb.Total())
}

func TestRateService_ComputeFees_ConvertsDeclaredValue(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GetSnapshot", mock.Anything).Return(testSnapshot(fixedNow), nil)

	fb, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package: domain.Package{Weight: 1, DeclaredValue: dec("200"), DeclaredCurrency: "usd"},
	})
	require.NoError(t, err)

	assertDec(t, "30000", fb.DeclaredValue)
	assertDec(t, "4500", fb.CustomsDuty)
	f.provider.AssertExpectations(t)
}

func TestRateService_ComputeFees_DeclaredCurrencyUnavailable(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GetSnapshot", mock.Anything).Return(nil, domain.ErrSnapshotMissing)

	_, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package: domain.Package{Weight: 1, DeclaredValue: dec("200"), DeclaredCurrency: "USD"},
	})
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestRateService_ComputeFees_OverrideTable(t *testing.T) {
	f := newFixture(t)
	override := testRates()
	override.BaseRate = dec("1000")

	fb, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package:   domain.Package{Weight: 1},
		RateTable: &override,
	})
	require.NoError(t, err)
	assertDec(t, "1000", fb.ShippingCost)

	override.StorageDailyRate = dec("-1")
	_, err = f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package:   domain.Package{Weight: 1},
		RateTable: &override,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRateService_ComputeFees_ClampsCorruptPackage(t *testing.T) {
	f := newFixture(t)

	fb, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{
		Package: domain.Package{Weight: -3, DeclaredValue: dec("-50"), DaysInStorage: intPtr(-2)},
	})
	require.NoError(t, err)
	assertDec(t, "0", fb.Total())
}

func TestRateService_ComputeFees_NoTable(t *testing.T) {
	f := newFixture(t)
	f.now = fixedNow.AddDate(-1, 0, 0)

	_, err := f.rates.ComputeFees(context.Background(), &service.ComputeFeesInput{Package: domain.Package{Weight: 1}})
	assert.ErrorIs(t, err, domain.ErrRateTableMissing)
}

func TestRateService_PublishRateTable(t *testing.T) {
	f := newFixture(t)
	rt := testRates()
	rt.BaseRate = dec("800")
	rt.BaseCurrency = " jpy "
	rt.EffectiveFrom = fixedNow

	published, err := f.rates.PublishRateTable(context.Background(), &rt)
	require.NoError(t, err)
	assert.Equal(t, "JPY", published.BaseCurrency)

	current, err := f.rates.CurrentRateTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, published.ID, current.ID)
	assertDec(t, "800", current.BaseRate)
}

func TestRateService_PublishRateTable_Rejects(t *testing.T) {
	f := newFixture(t)

	bad := testRates()
	bad.CustomsDutyPercent = dec("120")
	_, err := f.rates.PublishRateTable(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	unknown := testRates()
	unknown.BaseCurrency = "XYZ"
	_, err = f.rates.PublishRateTable(context.Background(), &unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestRateService_CurrentRateTable_RepoError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	repo := new(mocks.MockRateTableRepo)
	repo.On("GetCurrent", mock.Anything, fixedNow).Return(nil, boom)
	svc := service.NewRateService(repo, f.currency, nil, func() time.Time { return fixedNow }, zap.NewNop())

	_, err := svc.CurrentRateTable(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrRateTableMissing)
	repo.AssertExpectations(t)
}

func TestRateTableFromConfig(t *testing.T) {
	rt := service.RateTableFromConfig(config.RateTableConfig{
		BaseRate:         dec("700"),
		StorageFreeDays:  7,
		StorageDailyRate: dec("50"),
		BaseCurrency:     "JPY",
	})
	assertDec(t, "700", rt.BaseRate)
	assert.Equal(t, 7, rt.StorageFreeDays)
	assert.Equal(t, "JPY", rt.BaseCurrency)
}
