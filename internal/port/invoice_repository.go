package port

import (
	"context"

	"github.com/google/uuid"

	"cargoledger/internal/domain"
)

// InvoiceFilter narrows invoice listings. Zero values match everything.
type InvoiceFilter struct {
	Status     domain.InvoiceStatus
	CustomerID *uuid.UUID
}

// InvoiceRepository defines the contract for invoice persistence.
// Invoice numbers are unique; Create reports a clash as domain.ErrDuplicateInvoiceNumber.
// List treats a limit <= 0 as unbounded. Update only applies when the stored
// UpdatedAt still equals inv.UpdatedAt and reports domain.ErrConcurrentUpdate
// otherwise; on success inv.UpdatedAt holds the new version.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	MaxNumberForYear(ctx context.Context, year int) (string, error)
}
