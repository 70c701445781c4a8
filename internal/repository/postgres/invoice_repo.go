package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

const invoiceColumns = `id, number, status, issue_date, due_date, currency, customer_id, package_ref, notes,
	line_items, discount, rate_table, subtotal, tax_total, discount_amount, total, amount_paid, balance_due,
	payment_history, sent_at, paid_at, cancelled_at, created_at, updated_at`

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	inv.CreatedAt = now
	inv.UpdatedAt = now

	row, err := toInvoiceRow(inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}

	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (:id, :number, :status, :issue_date, :due_date, :currency, :customer_id, :package_ref, :notes,
			:line_items, :discount, :rate_table, :subtotal, :tax_total, :discount_amount, :total, :amount_paid, :balance_due,
			:payment_history, :sent_at, :paid_at, :cancelled_at, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err, "invoices_number_key") {
			return domain.ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	inv, err := fromInvoiceRow(&row)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	q := buildListQuery(filter, offset, limit)

	var total int
	if err := r.db.GetContext(ctx, &total, q.count, q.filterArgs...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, q.page, q.pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := fromInvoiceRow(&rows[i])
		if err != nil {
			return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, nil
}

type listQuery struct {
	count      string
	page       string
	filterArgs []interface{}
	pageArgs   []interface{}
}

// buildListQuery renders the count and page statements. A limit <= 0 drops
// the LIMIT clause.
func buildListQuery(filter port.InvoiceFilter, offset, limit int) listQuery {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	if offset < 0 {
		offset = 0
	}

	pageArgs := append([]interface{}{}, args...)
	page := "SELECT " + invoiceColumns + " FROM invoices" + where + " ORDER BY created_at DESC, number DESC"
	if limit > 0 {
		pageArgs = append(pageArgs, limit)
		page += fmt.Sprintf(" LIMIT $%d", len(pageArgs))
	}
	pageArgs = append(pageArgs, offset)
	page += fmt.Sprintf(" OFFSET $%d", len(pageArgs))

	return listQuery{
		count:      "SELECT COUNT(*) FROM invoices" + where,
		page:       page,
		filterArgs: args,
		pageArgs:   pageArgs,
	}
}

// versionedInvoiceRow carries the updated_at value the caller read, so an
// update only lands on the version it was computed from.
type versionedInvoiceRow struct {
	invoiceRow
	PrevUpdatedAt time.Time `db:"prev_updated_at"`
}

func (r *invoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	prev := inv.UpdatedAt
	inv.UpdatedAt = nextVersion(prev)

	row, err := toInvoiceRow(inv)
	if err != nil {
		inv.UpdatedAt = prev
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}

	result, err := r.db.NamedExecContext(ctx,
		`UPDATE invoices SET number = :number, status = :status, issue_date = :issue_date, due_date = :due_date,
			currency = :currency, customer_id = :customer_id, package_ref = :package_ref, notes = :notes,
			line_items = :line_items, discount = :discount, rate_table = :rate_table,
			subtotal = :subtotal, tax_total = :tax_total, discount_amount = :discount_amount, total = :total,
			amount_paid = :amount_paid, balance_due = :balance_due, payment_history = :payment_history,
			sent_at = :sent_at, paid_at = :paid_at, cancelled_at = :cancelled_at, updated_at = :updated_at
		 WHERE id = :id AND updated_at = :prev_updated_at`,
		versionedInvoiceRow{invoiceRow: *row, PrevUpdatedAt: prev})
	if err != nil {
		inv.UpdatedAt = prev
		if isUniqueViolation(err, "invoices_number_key") {
			return domain.ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	inv.UpdatedAt = prev
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)", inv.ID); err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	if !exists {
		return domain.ErrInvoiceNotFound
	}
	return domain.ErrConcurrentUpdate
}

// nextVersion returns a timestamp at column precision that is strictly
// after prev.
func nextVersion(prev time.Time) time.Time {
	next := time.Now().UTC().Truncate(time.Microsecond)
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}
	return next
}

// MaxNumberForYear orders by length first so INV-2026-10000 sorts after INV-2026-9999.
func (r *invoiceRepo) MaxNumberForYear(ctx context.Context, year int) (string, error) {
	var number string
	err := r.db.GetContext(ctx, &number,
		`SELECT number FROM invoices WHERE number LIKE $1
		 ORDER BY LENGTH(number) DESC, number DESC LIMIT 1`,
		fmt.Sprintf("INV-%04d-%%", year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("invoiceRepo.MaxNumberForYear: %w", err)
	}
	return number, nil
}
