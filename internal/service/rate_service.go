package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargoledger/internal/billing"
	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

// ComputeFeesInput is the DTO for a fee quote. RateTable overrides the
// table in effect when set.
type ComputeFeesInput struct {
	Package   domain.Package
	RateTable *domain.RateTable
}

// RateService defines rate table management and fee computation.
type RateService interface {
	ComputeFees(ctx context.Context, input *ComputeFeesInput) (*domain.FeeBreakdown, error)
	CurrentRateTable(ctx context.Context) (*domain.RateTable, error)
	PublishRateTable(ctx context.Context, rt *domain.RateTable) (*domain.RateTable, error)
}

type rateService struct {
	repo     port.RateTableRepository
	currency CurrencyService
	calc     *billing.FeeCalculator
	now      func() time.Time
	log      *zap.Logger
}

// NewRateService creates a new RateService implementation.
func NewRateService(
	repo port.RateTableRepository,
	currency CurrencyService,
	calc *billing.FeeCalculator,
	now func() time.Time,
	log *zap.Logger,
) RateService {
	if now == nil {
		now = time.Now
	}
	return &rateService{
		repo:     repo,
		currency: currency,
		calc:     calc,
		now:      now,
		log:      log.Named("rates"),
	}
}

// RateTableFromConfig builds the fallback rate table from configuration.
func RateTableFromConfig(cfg config.RateTableConfig) domain.RateTable {
	return domain.RateTable{
		BaseRate:           cfg.BaseRate,
		AdditionalRate:     cfg.AdditionalRate,
		CustomsDutyPercent: cfg.CustomsDutyPercent,
		CustomsThreshold:   cfg.CustomsThreshold,
		StorageFreeDays:    cfg.StorageFreeDays,
		StorageDailyRate:   cfg.StorageDailyRate,
		BaseCurrency:       cfg.BaseCurrency,
	}
}

func (s *rateService) CurrentRateTable(ctx context.Context) (*domain.RateTable, error) {
	rt, err := s.repo.GetCurrent(ctx, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrRateTableMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("loading rate table: %w", err)
	}
	return rt, nil
}

func (s *rateService) PublishRateTable(ctx context.Context, rt *domain.RateTable) (*domain.RateTable, error) {
	rt.BaseCurrency = strings.ToUpper(strings.TrimSpace(rt.BaseCurrency))
	if err := billing.ValidateRateTable(rt); err != nil {
		return nil, err
	}
	if !s.currency.Known(rt.BaseCurrency) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, rt.BaseCurrency)
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("publishing rate table: %w", err)
	}
	s.log.Info("rate table published",
		zap.String("rate_table_id", rt.ID.String()),
		zap.Time("effective_from", rt.EffectiveFrom),
		zap.String("base_currency", rt.BaseCurrency),
	)
	return rt, nil
}

func (s *rateService) ComputeFees(ctx context.Context, input *ComputeFeesInput) (*domain.FeeBreakdown, error) {
	rt := input.RateTable
	if rt == nil {
		current, err := s.CurrentRateTable(ctx)
		if err != nil {
			return nil, err
		}
		rt = current
	} else if err := billing.ValidateRateTable(rt); err != nil {
		return nil, err
	}

	// Out-of-range package values are clamped by the calculator, not rejected.
	pkg := input.Package
	declared, err := s.declaredInBase(ctx, pkg, rt.BaseCurrency)
	if err != nil {
		return nil, err
	}
	pkg.DeclaredValue = declared

	fb := s.calc.Compute(pkg, rt, s.now())
	return &fb, nil
}

// declaredInBase converts the declared value to the rate table currency.
func (s *rateService) declaredInBase(ctx context.Context, pkg domain.Package, base string) (decimal.Decimal, error) {
	from := strings.ToUpper(strings.TrimSpace(pkg.DeclaredCurrency))
	if from == "" || from == base || pkg.DeclaredValue.IsZero() {
		return pkg.DeclaredValue, nil
	}
	conv, err := s.currency.Convert(ctx, pkg.DeclaredValue, from, base)
	if err != nil {
		return decimal.Zero, fmt.Errorf("converting declared value: %w", err)
	}
	return conv.Converted, nil
}
