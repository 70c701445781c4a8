// Package static serves a fixed exchange rate snapshot from configuration.
package static

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate"
	"cargoledger/internal/port"
)

type provider struct {
	base  string
	rates map[string]decimal.Decimal
	now   func() time.Time
}

// NewProvider returns a RateSnapshotProvider that always serves rates. The
// snapshot is stamped with the request time, so it never goes stale.
func NewProvider(base string, rates map[string]decimal.Decimal) (port.RateSnapshotProvider, error) {
	if _, err := fxrate.Normalize(base, rates, time.Now()); err != nil {
		return nil, err
	}
	return &provider{base: base, rates: rates, now: time.Now}, nil
}

func (p *provider) GetSnapshot(_ context.Context) (*domain.RateSnapshot, error) {
	return fxrate.Normalize(p.base, p.rates, p.now())
}
