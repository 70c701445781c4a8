// Package memory provides in-process repositories used by tests and by the
// server when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

type invoiceStore struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*domain.Invoice
	numbers  map[string]uuid.UUID
}

// NewInvoiceRepo creates an in-memory InvoiceRepository.
func NewInvoiceRepo() port.InvoiceRepository {
	return &invoiceStore{
		invoices: make(map[uuid.UUID]*domain.Invoice),
		numbers:  make(map[string]uuid.UUID),
	}
}

func (s *invoiceStore) Create(_ context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[inv.Number]; taken {
		return domain.ErrDuplicateInvoiceNumber
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invoices[inv.ID] = cloneInvoice(inv)
	s.numbers[inv.Number] = inv.ID
	return nil
}

func (s *invoiceStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return cloneInvoice(inv), nil
}

func (s *invoiceStore) List(_ context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.CustomerID != nil && (inv.CustomerID == nil || *inv.CustomerID != *filter.CustomerID) {
			continue
		}
		matched = append(matched, inv)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].Number > matched[j].Number
	})

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]domain.Invoice, 0, end-offset)
	for _, inv := range matched[offset:end] {
		out = append(out, *cloneInvoice(inv))
	}
	return out, total, nil
}

func (s *invoiceStore) Update(_ context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	if !existing.UpdatedAt.Equal(inv.UpdatedAt) {
		return domain.ErrConcurrentUpdate
	}
	if existing.Number != inv.Number {
		if _, taken := s.numbers[inv.Number]; taken {
			return domain.ErrDuplicateInvoiceNumber
		}
		delete(s.numbers, existing.Number)
		s.numbers[inv.Number] = inv.ID
	}
	next := time.Now().UTC()
	if !next.After(existing.UpdatedAt) {
		next = existing.UpdatedAt.Add(time.Nanosecond)
	}
	inv.UpdatedAt = next
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (s *invoiceStore) MaxNumberForYear(_ context.Context, year int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, bestSeq := "", -1
	for number := range s.numbers {
		y, seq, ok := billing.ParseNumber(number)
		if ok && y == year && seq > bestSeq {
			best, bestSeq = number, seq
		}
	}
	return best, nil
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	cp := *inv
	cp.LineItems = append([]domain.LineItem(nil), inv.LineItems...)
	cp.PaymentHistory = append([]domain.PaymentRecord(nil), inv.PaymentHistory...)
	if inv.Discount != nil {
		d := *inv.Discount
		cp.Discount = &d
	}
	if inv.RateTable != nil {
		rt := *inv.RateTable
		cp.RateTable = &rt
	}
	if inv.CustomerID != nil {
		id := *inv.CustomerID
		cp.CustomerID = &id
	}
	cp.SentAt = cloneTime(inv.SentAt)
	cp.PaidAt = cloneTime(inv.PaidAt)
	cp.CancelledAt = cloneTime(inv.CancelledAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type rateTableStore struct {
	mu     sync.RWMutex
	tables []domain.RateTable
}

// NewRateTableRepo creates an in-memory RateTableRepository seeded with the given tables.
func NewRateTableRepo(seed ...domain.RateTable) port.RateTableRepository {
	s := &rateTableStore{}
	for i := range seed {
		_ = s.Create(context.Background(), &seed[i])
	}
	return s
}

func (s *rateTableStore) Create(_ context.Context, rt *domain.RateTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.CreatedAt = time.Now().UTC()
	if rt.EffectiveFrom.IsZero() {
		rt.EffectiveFrom = rt.CreatedAt
	}
	s.tables = append(s.tables, *rt)
	return nil
}

func (s *rateTableStore) GetCurrent(_ context.Context, at time.Time) (*domain.RateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current *domain.RateTable
	for i := range s.tables {
		rt := &s.tables[i]
		if rt.EffectiveFrom.After(at) {
			continue
		}
		if current == nil || !rt.EffectiveFrom.Before(current.EffectiveFrom) {
			current = rt
		}
	}
	if current == nil {
		return nil, domain.ErrRateTableMissing
	}
	out := *current
	return &out, nil
}
