// Package fxrate holds the exchange rate snapshot wire format shared by the
// snapshot providers.
package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

// Document is the JSON form of a published snapshot:
//
//	{"base":"USD","taken_at":"2026-04-01T00:00:00Z","rates":{"JPY":"150.2"}}
type Document struct {
	Base    string                     `json:"base"`
	TakenAt time.Time                  `json:"taken_at"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}

// Decode parses and normalizes a published snapshot. A zero taken_at is
// replaced by fallback; if fallback is also zero the document is rejected.
func Decode(raw []byte, fallback time.Time) (*domain.RateSnapshot, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding rate snapshot: %w", err)
	}
	if doc.TakenAt.IsZero() {
		doc.TakenAt = fallback
	}
	return Normalize(doc.Base, doc.Rates, doc.TakenAt)
}

// Normalize builds a snapshot with upper-case codes. It rejects snapshots
// without a base, a timestamp or any rates.
func Normalize(base string, rates map[string]decimal.Decimal, takenAt time.Time) (*domain.RateSnapshot, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if len(base) != 3 {
		return nil, fmt.Errorf("rate snapshot: invalid base currency %q", base)
	}
	if takenAt.IsZero() {
		return nil, fmt.Errorf("rate snapshot: missing taken_at")
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rate snapshot: no rates")
	}

	out := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	if _, ok := out[base]; !ok {
		out[base] = decimal.NewFromInt(1)
	}
	return &domain.RateSnapshot{Base: base, Rates: out, TakenAt: takenAt.UTC()}, nil
}

// Encode renders a snapshot in the published JSON form.
func Encode(snap *domain.RateSnapshot) ([]byte, error) {
	return json.Marshal(Document{Base: snap.Base, TakenAt: snap.TakenAt, Rates: snap.Rates})
}

// Publisher stores a snapshot where a provider can read it back.
type Publisher interface {
	Publish(ctx context.Context, snap *domain.RateSnapshot) error
}
