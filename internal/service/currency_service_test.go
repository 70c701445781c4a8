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

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
	"cargoledger/internal/service"
	"cargoledger/mocks"
)

func newCurrencyService(provider *mocks.MockRateSnapshotProvider, maxAge time.Duration, now time.Time) service.CurrencyService {
	return service.NewCurrencyService(provider, billing.NewConverter(nil, nil), maxAge, func() time.Time { return now }, zap.NewNop())
}

func TestCurrencyService_Convert(t *testing.T) {
	provider := new(mocks.MockRateSnapshotProvider)
	provider.On("GetSnapshot", mock.Anything).Return(testSnapshot(fixedNow.Add(-time.Hour)), nil)
	svc := newCurrencyService(provider, 24*time.Hour, fixedNow)

	conv, err := svc.Convert(context.Background(), dec("3000"), "JPY", "USD")
	require.NoError(t, err)
	assertDec(t, "20", conv.Converted)
	assert.Equal(t, "$20.00", conv.Formatted)
	assert.Equal(t, "USD", conv.SnapshotBase)
	provider.AssertExpectations(t)
}

func TestCurrencyService_Convert_UnknownCurrency(t *testing.T) {
	provider := new(mocks.MockRateSnapshotProvider)
	provider.On("GetSnapshot", mock.Anything).Return(testSnapshot(fixedNow), nil)
	svc := newCurrencyService(provider, 0, fixedNow)

	_, err := svc.Convert(context.Background(), dec("10"), "USD", "KRW")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestCurrencyService_Snapshot_Stale(t *testing.T) {
	provider := new(mocks.MockRateSnapshotProvider)
	provider.On("GetSnapshot", mock.Anything).Return(testSnapshot(fixedNow.Add(-48*time.Hour)), nil)
	svc := newCurrencyService(provider, 24*time.Hour, fixedNow)

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrStaleSnapshot)

	_, err = svc.Convert(context.Background(), dec("1"), "USD", "JPY")
	assert.ErrorIs(t, err, domain.ErrStaleSnapshot)
}

func TestCurrencyService_Snapshot_AgeCheckDisabled(t *testing.T) {
	provider := new(mocks.MockRateSnapshotProvider)
	provider.On("GetSnapshot", mock.Anything).Return(testSnapshot(fixedNow.AddDate(-1, 0, 0)), nil)
	svc := newCurrencyService(provider, 0, fixedNow)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", snap.Base)
}

func TestCurrencyService_Snapshot_ProviderError(t *testing.T) {
	provider := new(mocks.MockRateSnapshotProvider)
	provider.On("GetSnapshot", mock.Anything).Return(nil, domain.ErrSnapshotMissing)
	svc := newCurrencyService(provider, time.Hour, fixedNow)

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)

	boom := errors.New("dial tcp: connection refused")
	failing := new(mocks.MockRateSnapshotProvider)
	failing.On("GetSnapshot", mock.Anything).Return(nil, boom)
	_, err = newCurrencyService(failing, time.Hour, fixedNow).Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCurrencyService_Display(t *testing.T) {
	svc := newCurrencyService(new(mocks.MockRateSnapshotProvider), 0, fixedNow)

	assert.Equal(t, "¥1,235", svc.Format(dec("1234.5"), "JPY"))
	assertDec(t, "9.33", svc.Round(dec("9.3333"), "USD"))
	assert.True(t, svc.Known("php"))
	assert.False(t, svc.Known("XYZ"))
	assert.NotEmpty(t, svc.Currencies())
}
