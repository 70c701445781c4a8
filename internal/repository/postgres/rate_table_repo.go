package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

type rateTableRepo struct {
	db *sqlx.DB
}

// NewRateTableRepo creates a new PostgreSQL-backed RateTableRepository.
func NewRateTableRepo(db *sqlx.DB) port.RateTableRepository {
	return &rateTableRepo{db: db}
}

func (r *rateTableRepo) Create(ctx context.Context, rt *domain.RateTable) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.CreatedAt = time.Now().UTC()
	if rt.EffectiveFrom.IsZero() {
		rt.EffectiveFrom = rt.CreatedAt
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO rate_tables (id, base_rate, additional_rate, customs_duty_percent, customs_threshold,
			storage_free_days, storage_daily_rate, base_currency, effective_from, created_at)
		 VALUES (:id, :base_rate, :additional_rate, :customs_duty_percent, :customs_threshold,
			:storage_free_days, :storage_daily_rate, :base_currency, :effective_from, :created_at)`, rt)
	if err != nil {
		return fmt.Errorf("rateTableRepo.Create: %w", err)
	}
	return nil
}

func (r *rateTableRepo) GetCurrent(ctx context.Context, at time.Time) (*domain.RateTable, error) {
	var rt domain.RateTable
	err := r.db.GetContext(ctx, &rt,
		`SELECT * FROM rate_tables WHERE effective_from <= $1
		 ORDER BY effective_from DESC, created_at DESC LIMIT 1`, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRateTableMissing
		}
		return nil, fmt.Errorf("rateTableRepo.GetCurrent: %w", err)
	}
	return &rt, nil
}
