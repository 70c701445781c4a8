package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cargoledger/internal/domain"
)

const (
	numberPrefix = "INV"

	// DefaultNumberAttempts bounds retries after a uniqueness conflict.
	DefaultNumberAttempts = 5
)

// NumberSource looks up the highest invoice number issued for a year.
// It returns an empty string when the year has no invoices yet.
type NumberSource interface {
	MaxNumberForYear(ctx context.Context, year int) (string, error)
}

// NumberGenerator assigns year-scoped INV-YYYY-NNNN numbers. Uniqueness is
// enforced by the store; the generator only retries on conflicts.
type NumberGenerator struct {
	source      NumberSource
	maxAttempts int
}

// NewNumberGenerator creates a generator. maxAttempts <= 0 selects DefaultNumberAttempts.
func NewNumberGenerator(source NumberSource, maxAttempts int) *NumberGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultNumberAttempts
	}
	return &NumberGenerator{source: source, maxAttempts: maxAttempts}
}

// FormatNumber renders a sequence as INV-YYYY-NNNN, padding to at least 4 digits.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", numberPrefix, year, seq)
}

// ParseNumber splits an invoice number into year and sequence.
func ParseNumber(number string) (year, seq int, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != numberPrefix || len(parts[1]) != 4 || len(parts[2]) < 4 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return 0, 0, false
	}
	return year, seq, true
}

// Next returns the number following the highest one issued in year.
func (g *NumberGenerator) Next(ctx context.Context, year int) (string, error) {
	seq, err := g.nextSeq(ctx, year)
	if err != nil {
		return "", err
	}
	return FormatNumber(year, seq), nil
}

func (g *NumberGenerator) nextSeq(ctx context.Context, year int) (int, error) {
	highest, err := g.source.MaxNumberForYear(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("numbering.Next: %w", err)
	}
	if highest == "" {
		return 1, nil
	}
	y, seq, ok := ParseNumber(highest)
	if !ok || y != year {
		return 0, fmt.Errorf("numbering.Next: malformed invoice number %q", highest)
	}
	return seq + 1, nil
}

// Assign picks the next number for year and hands it to insert. When insert
// reports domain.ErrDuplicateInvoiceNumber, another writer took the number
// first and the next candidate is tried, up to the attempt limit.
func (g *NumberGenerator) Assign(ctx context.Context, year int, insert func(number string) error) (string, error) {
	seq, err := g.nextSeq(ctx, year)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		number := FormatNumber(year, seq)
		err := insert(number)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, domain.ErrDuplicateInvoiceNumber) {
			return "", err
		}

		fresh, err := g.nextSeq(ctx, year)
		if err != nil {
			return "", err
		}
		if fresh > seq+1 {
			seq = fresh
		} else {
			seq++
		}
	}
	return "", fmt.Errorf("%w: year %d after %d attempts", domain.ErrNumberConflict, year, g.maxAttempts)
}
