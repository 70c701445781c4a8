package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargoledger/internal/billing"
	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/port"
)

// CreateInvoiceInput is the DTO for creating a draft invoice.
type CreateInvoiceInput struct {
	Currency   string
	CustomerID *uuid.UUID
	PackageRef string
	Notes      string
	IssueDate  time.Time
	DueDate    *time.Time
	LineItems  []billing.LineItemInput
	Discount   *domain.Discount
}

// InvoicePackageInput is the DTO for invoicing a package's charges.
type InvoicePackageInput struct {
	Package        domain.Package
	Currency       string
	CustomerID     *uuid.UUID
	Notes          string
	TaxRatePercent *decimal.Decimal
	DueDate        *time.Time
	Discount       *domain.Discount
}

// ApplyPaymentInput is the DTO for recording a payment.
type ApplyPaymentInput struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Reference string
	Date      time.Time
}

// InvoiceService defines the invoice lifecycle contract.
type InvoiceService interface {
	Create(ctx context.Context, input *CreateInvoiceInput) (*domain.Invoice, error)
	InvoicePackage(ctx context.Context, input *InvoicePackageInput) (*domain.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	AddLineItem(ctx context.Context, id uuid.UUID, item billing.LineItemInput) (*domain.Invoice, error)
	RemoveLineItem(ctx context.Context, id, itemID uuid.UUID) (*domain.Invoice, error)
	SetDiscount(ctx context.Context, id uuid.UUID, discount *domain.Discount) (*domain.Invoice, error)
	Send(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	ApplyPayment(ctx context.Context, input *ApplyPaymentInput) (*domain.Invoice, error)
}

type invoiceService struct {
	repo     port.InvoiceRepository
	rates    RateService
	currency CurrencyService
	ledger   *billing.Ledger
	payments *billing.PaymentApplier
	numbers  *billing.NumberGenerator
	cfg      config.BillingConfig
	now      func() time.Time
	log      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	repo port.InvoiceRepository,
	rates RateService,
	currency CurrencyService,
	ledger *billing.Ledger,
	cfg config.BillingConfig,
	now func() time.Time,
	log *zap.Logger,
) InvoiceService {
	if now == nil {
		now = time.Now
	}
	return &invoiceService{
		repo:     repo,
		rates:    rates,
		currency: currency,
		ledger:   ledger,
		payments: billing.NewPaymentApplier(ledger),
		numbers:  billing.NewNumberGenerator(repo, cfg.NumberAttempts),
		cfg:      cfg,
		now:      now,
		log:      log.Named("invoices"),
	}
}

func (s *invoiceService) Create(ctx context.Context, input *CreateInvoiceInput) (*domain.Invoice, error) {
	inv, err := s.newDraft(input.Currency, input.IssueDate, input.DueDate)
	if err != nil {
		return nil, err
	}
	inv.CustomerID = input.CustomerID
	inv.PackageRef = strings.TrimSpace(input.PackageRef)
	inv.Notes = input.Notes

	items, err := billing.NewLineItems(input.LineItems)
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateDiscount(input.Discount); err != nil {
		return nil, err
	}
	inv.LineItems = items
	inv.Discount = input.Discount
	s.ledger.Recompute(inv)

	if err := s.insert(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) InvoicePackage(ctx context.Context, input *InvoicePackageInput) (*domain.Invoice, error) {
	rt, err := s.rates.CurrentRateTable(ctx)
	if err != nil {
		return nil, err
	}
	fb, err := s.rates.ComputeFees(ctx, &ComputeFeesInput{Package: input.Package, RateTable: rt})
	if err != nil {
		return nil, err
	}

	currency := s.invoiceCurrency(input.Currency)
	if currency == "" {
		currency = rt.BaseCurrency
	}
	if !strings.EqualFold(currency, fb.Currency) {
		if fb, err = s.convertFees(ctx, fb, currency); err != nil {
			return nil, err
		}
	}

	tax := s.cfg.DefaultTaxPercent
	if input.TaxRatePercent != nil {
		tax = *input.TaxRatePercent
	}

	inv, err := s.newDraft(currency, time.Time{}, input.DueDate)
	if err != nil {
		return nil, err
	}
	inv.CustomerID = input.CustomerID
	inv.PackageRef = strings.TrimSpace(input.Package.Reference)
	inv.Notes = input.Notes
	inv.RateTable = rt

	items, err := billing.NewLineItems(billing.LineItemsFromFees(*fb, tax))
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateDiscount(input.Discount); err != nil {
		return nil, err
	}
	inv.LineItems = items
	inv.Discount = input.Discount
	s.ledger.Recompute(inv)

	if err := s.insert(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.retryOnConflict(func() error {
		var err error
		inv, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.persistStatus(ctx, inv, s.now())
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// settledByRead are the statuses whose membership lazy evaluation can change.
var settledByRead = map[domain.InvoiceStatus]bool{
	domain.InvoiceStatusSent:    true,
	domain.InvoiceStatusOverdue: true,
	domain.InvoiceStatusPaid:    true,
}

func (s *invoiceService) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	if filter.Status != "" && !domain.ValidInvoiceStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	now := s.now()
	if settledByRead[filter.Status] {
		if err := s.settleOpen(ctx, filter.CustomerID, now); err != nil {
			return nil, 0, err
		}
	}

	invoices, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range invoices {
		if err := s.persistStatus(ctx, &invoices[i], now); err != nil {
			s.log.Warn("persisting lazy status change failed",
				zap.String("invoice_number", invoices[i].Number),
				zap.Error(err),
			)
		}
	}
	return invoices, total, nil
}

// settleOpen applies due transitions to every open invoice so a status
// filtered listing sees current statuses in both the page and the total.
func (s *invoiceService) settleOpen(ctx context.Context, customerID *uuid.UUID, now time.Time) error {
	for _, status := range []domain.InvoiceStatus{domain.InvoiceStatusSent, domain.InvoiceStatusOverdue} {
		open, _, err := s.repo.List(ctx, port.InvoiceFilter{Status: status, CustomerID: customerID}, 0, 0)
		if err != nil {
			return fmt.Errorf("loading %s invoices: %w", status, err)
		}
		for i := range open {
			if err := s.persistStatus(ctx, &open[i], now); err != nil {
				s.log.Warn("settling invoice status failed",
					zap.String("invoice_number", open[i].Number),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// persistStatus stores inv when a lazy status transition applies to it.
func (s *invoiceService) persistStatus(ctx context.Context, inv *domain.Invoice, now time.Time) error {
	if !s.ledger.EvaluateStatus(inv, now) {
		return nil
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		return fmt.Errorf("persisting status of %s: %w", inv.Number, err)
	}
	s.log.Info("invoice status changed on read",
		zap.String("invoice_number", inv.Number),
		zap.String("status", string(inv.Status)),
	)
	return nil
}

func (s *invoiceService) AddLineItem(ctx context.Context, id uuid.UUID, item billing.LineItemInput) (*domain.Invoice, error) {
	return s.mutate(ctx, id, func(inv *domain.Invoice) error {
		_, err := s.ledger.AddLineItem(inv, item)
		return err
	})
}

func (s *invoiceService) RemoveLineItem(ctx context.Context, id, itemID uuid.UUID) (*domain.Invoice, error) {
	return s.mutate(ctx, id, func(inv *domain.Invoice) error {
		return s.ledger.RemoveLineItem(inv, itemID)
	})
}

func (s *invoiceService) SetDiscount(ctx context.Context, id uuid.UUID, discount *domain.Discount) (*domain.Invoice, error) {
	return s.mutate(ctx, id, func(inv *domain.Invoice) error {
		return s.ledger.SetDiscount(inv, discount)
	})
}

func (s *invoiceService) Send(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.mutate(ctx, id, func(inv *domain.Invoice) error {
		return s.ledger.Send(inv, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice sent",
		zap.String("invoice_number", inv.Number),
		zap.String("total", inv.Total.String()),
		zap.String("currency", inv.Currency),
	)
	return inv, nil
}

func (s *invoiceService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.mutate(ctx, id, func(inv *domain.Invoice) error {
		return s.ledger.Cancel(inv, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice cancelled", zap.String("invoice_number", inv.Number))
	return inv, nil
}

func (s *invoiceService) ApplyPayment(ctx context.Context, input *ApplyPaymentInput) (*domain.Invoice, error) {
	var record *domain.PaymentRecord
	inv, err := s.mutate(ctx, input.InvoiceID, func(inv *domain.Invoice) error {
		var err error
		record, err = s.payments.Apply(inv, billing.PaymentInput{
			Amount:    input.Amount,
			Method:    input.Method,
			Reference: input.Reference,
			Date:      input.Date,
		}, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment applied",
		zap.String("invoice_number", inv.Number),
		zap.String("payment_id", record.ID.String()),
		zap.String("amount", record.Amount.String()),
		zap.String("balance_due", inv.BalanceDue.String()),
		zap.String("status", string(inv.Status)),
	)
	return inv, nil
}

// mutate loads an invoice, applies fn and persists the result. Nothing is
// written when fn fails. A concurrent write reloads the invoice and runs fn
// again, up to the configured number of attempts.
func (s *invoiceService) mutate(ctx context.Context, id uuid.UUID, fn func(inv *domain.Invoice) error) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.retryOnConflict(func() error {
		var err error
		inv, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		s.ledger.EvaluateStatus(inv, s.now())
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("saving invoice %s: %w", inv.Number, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) retryOnConflict(op func() error) error {
	attempts := s.cfg.UpdateAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		s.log.Debug("invoice changed during update, retrying", zap.Int("attempt", attempt))
	}
	return err
}

func (s *invoiceService) newDraft(currency string, issue time.Time, due *time.Time) (*domain.Invoice, error) {
	currency = s.invoiceCurrency(currency)
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", domain.ErrValidation)
	}
	if !s.currency.Known(currency) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, currency)
	}
	if issue.IsZero() {
		issue = s.now()
	}
	issue = issue.UTC()

	dueDate := issue.AddDate(0, 0, s.cfg.PaymentTermsDays)
	if due != nil {
		if due.Before(issue) {
			return nil, fmt.Errorf("%w: due_date is before issue_date", domain.ErrValidation)
		}
		dueDate = due.UTC()
	}

	return &domain.Invoice{
		ID:             uuid.New(),
		Status:         domain.InvoiceStatusDraft,
		IssueDate:      issue,
		DueDate:        dueDate,
		Currency:       currency,
		LineItems:      []domain.LineItem{},
		PaymentHistory: []domain.PaymentRecord{},
	}, nil
}

func (s *invoiceService) invoiceCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = s.cfg.DefaultCurrency
	}
	return code
}

// insert assigns the next number for the issue year and stores the invoice.
func (s *invoiceService) insert(ctx context.Context, inv *domain.Invoice) error {
	number, err := s.numbers.Assign(ctx, inv.IssueDate.Year(), func(number string) error {
		inv.Number = number
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return err
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", number),
		zap.String("total", inv.Total.String()),
		zap.String("currency", inv.Currency),
	)
	return nil
}

// convertFees expresses a breakdown in currency, rounded to its display precision.
func (s *invoiceService) convertFees(ctx context.Context, fb *domain.FeeBreakdown, currency string) (*domain.FeeBreakdown, error) {
	out := *fb
	for _, f := range []*decimal.Decimal{&out.ShippingCost, &out.StorageFee, &out.CustomsDuty} {
		if f.IsZero() {
			continue
		}
		conv, err := s.currency.Convert(ctx, *f, fb.Currency, currency)
		if err != nil {
			return nil, fmt.Errorf("converting fees to %s: %w", currency, err)
		}
		*f = s.currency.Round(conv.Converted, currency)
	}
	out.Currency = currency
	return &out, nil
}
