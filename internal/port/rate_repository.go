package port

import (
	"context"
	"time"

	"cargoledger/internal/domain"
)

// RateTableRepository stores published rate tables. Tables are append-only;
// the one in effect at a moment is the latest with EffectiveFrom <= that moment.
type RateTableRepository interface {
	Create(ctx context.Context, rt *domain.RateTable) error
	GetCurrent(ctx context.Context, at time.Time) (*domain.RateTable, error)
}

// RateSnapshotProvider supplies the latest exchange rate snapshot.
type RateSnapshotProvider interface {
	GetSnapshot(ctx context.Context) (*domain.RateSnapshot, error)
}
