package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

// Conversion is the result of converting an amount through a snapshot.
type Conversion struct {
	Amount          decimal.Decimal `json:"amount"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	Converted       decimal.Decimal `json:"converted"`
	Formatted       string          `json:"formatted"`
	SnapshotBase    string          `json:"snapshot_base"`
	SnapshotTakenAt time.Time       `json:"snapshot_taken_at"`
}

// CurrencyService defines currency conversion and display operations.
type CurrencyService interface {
	Snapshot(ctx context.Context) (*domain.RateSnapshot, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error)
	Format(amount decimal.Decimal, code string) string
	Round(amount decimal.Decimal, code string) decimal.Decimal
	Known(code string) bool
	Currencies() []domain.CurrencyInfo
}

type currencyService struct {
	provider  port.RateSnapshotProvider
	converter *billing.Converter
	maxAge    time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewCurrencyService creates a new CurrencyService. Snapshots older than
// maxAge are refused; maxAge <= 0 disables the check.
func NewCurrencyService(
	provider port.RateSnapshotProvider,
	converter *billing.Converter,
	maxAge time.Duration,
	now func() time.Time,
	log *zap.Logger,
) CurrencyService {
	if now == nil {
		now = time.Now
	}
	return &currencyService{
		provider:  provider,
		converter: converter,
		maxAge:    maxAge,
		now:       now,
		log:       log.Named("currency"),
	}
}

func (s *currencyService) Snapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	snap, err := s.provider.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching rate snapshot: %w", err)
	}
	if snap == nil {
		return nil, domain.ErrSnapshotMissing
	}
	if s.maxAge > 0 {
		if age := snap.Age(s.now()); age > s.maxAge {
			s.log.Warn("refusing stale rate snapshot",
				zap.Time("taken_at", snap.TakenAt),
				zap.Duration("age", age),
				zap.Duration("max_age", s.maxAge),
			)
			return nil, fmt.Errorf("%w: taken at %s", domain.ErrStaleSnapshot, snap.TakenAt.Format(time.RFC3339))
		}
	}
	return snap, nil
}

func (s *currencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	converted, err := s.converter.Convert(amount, from, to, snap)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Amount:          amount,
		From:            from,
		To:              to,
		Converted:       converted,
		Formatted:       s.converter.Format(converted, to),
		SnapshotBase:    snap.Base,
		SnapshotTakenAt: snap.TakenAt,
	}, nil
}

func (s *currencyService) Format(amount decimal.Decimal, code string) string {
	return s.converter.Format(amount, code)
}

func (s *currencyService) Round(amount decimal.Decimal, code string) decimal.Decimal {
	return s.converter.Round(amount, code)
}

func (s *currencyService) Known(code string) bool {
	return s.converter.Known(code)
}

func (s *currencyService) Currencies() []domain.CurrencyInfo {
	return s.converter.Currencies()
}
