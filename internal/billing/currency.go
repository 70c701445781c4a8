package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"cargoledger/internal/domain"
)

const defaultPattern = "{symbol}{amount}"

// DefaultCurrencies is the display table used when no custom table is configured.
var DefaultCurrencies = []domain.CurrencyInfo{
	{Code: "USD", Symbol: "$", DecimalPlaces: 2},
	{Code: "EUR", Symbol: "€", DecimalPlaces: 2},
	{Code: "GBP", Symbol: "£", DecimalPlaces: 2},
	{Code: "CAD", Symbol: "C$", DecimalPlaces: 2},
	{Code: "AUD", Symbol: "A$", DecimalPlaces: 2},
	{Code: "NZD", Symbol: "NZ$", DecimalPlaces: 2},
	{Code: "SGD", Symbol: "S$", DecimalPlaces: 2},
	{Code: "HKD", Symbol: "HK$", DecimalPlaces: 2},
	{Code: "CNY", Symbol: "CN¥", DecimalPlaces: 2},
	{Code: "INR", Symbol: "₹", DecimalPlaces: 2},
	{Code: "PHP", Symbol: "₱", DecimalPlaces: 2},
	{Code: "THB", Symbol: "฿", DecimalPlaces: 2},
	{Code: "MYR", Symbol: "RM", DecimalPlaces: 2},
	{Code: "CHF", Symbol: "CHF", DecimalPlaces: 2, Pattern: "{symbol} {amount}"},
	{Code: "JPY", Symbol: "¥", DecimalPlaces: 0},
	{Code: "KRW", Symbol: "₩", DecimalPlaces: 0},
	{Code: "IDR", Symbol: "Rp", DecimalPlaces: 0, Pattern: "{symbol} {amount}"},
	{Code: "VND", Symbol: "₫", DecimalPlaces: 0, Pattern: "{amount} {symbol}"},
	{Code: "CLP", Symbol: "CLP$", DecimalPlaces: 0},
	{Code: "PYG", Symbol: "₲", DecimalPlaces: 0},
	{Code: "KWD", Symbol: "KD", DecimalPlaces: 3, Pattern: "{symbol} {amount}"},
	{Code: "BHD", Symbol: "BD", DecimalPlaces: 3, Pattern: "{symbol} {amount}"},
	{Code: "OMR", Symbol: "OMR", DecimalPlaces: 3, Pattern: "{symbol} {amount}"},
	{Code: "JOD", Symbol: "JD", DecimalPlaces: 3, Pattern: "{symbol} {amount}"},
	{Code: "TND", Symbol: "DT", DecimalPlaces: 3, Pattern: "{amount} {symbol}"},
}

// Converter converts amounts through a rate snapshot and renders them for display.
type Converter struct {
	sink       AnomalySink
	currencies map[string]domain.CurrencyInfo
}

// NewConverter builds a Converter over the given display table.
// A nil table selects DefaultCurrencies.
func NewConverter(sink AnomalySink, table []domain.CurrencyInfo) *Converter {
	if table == nil {
		table = DefaultCurrencies
	}
	currencies := make(map[string]domain.CurrencyInfo, len(table))
	for _, info := range table {
		info.Code = normalizeCode(info.Code)
		if info.Pattern == "" {
			info.Pattern = defaultPattern
		}
		currencies[info.Code] = info
	}
	return &Converter{sink: sinkOrDiscard(sink), currencies: currencies}
}

// Convert returns amount expressed in currency to, computed as
// amount / rate[from] * rate[to]. The snapshot base currency has rate 1
// unless the snapshot lists it explicitly.
func (c *Converter) Convert(amount decimal.Decimal, from, to string, snap *domain.RateSnapshot) (decimal.Decimal, error) {
	if snap == nil {
		return decimal.Zero, domain.ErrSnapshotMissing
	}
	from, to = normalizeCode(from), normalizeCode(to)

	fromRate, ok := snapshotRate(snap, from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, from)
	}
	toRate, ok := snapshotRate(snap, to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, to)
	}
	if from == to {
		return amount, nil
	}
	if !fromRate.IsPositive() {
		c.sink.Report(Anomaly{Op: "convert", Field: "rate[" + from + "]", Value: fromRate.String(), Reason: "non-positive rate, result coerced to 0"})
		return decimal.Zero, nil
	}
	if !toRate.IsPositive() {
		c.sink.Report(Anomaly{Op: "convert", Field: "rate[" + to + "]", Value: toRate.String(), Reason: "non-positive rate, result coerced to 0"})
		return decimal.Zero, nil
	}
	return roundLedger(amount.Mul(toRate).Div(fromRate)), nil
}

// Info returns the display rules for code.
func (c *Converter) Info(code string) (domain.CurrencyInfo, error) {
	info, ok := c.currencies[normalizeCode(code)]
	if !ok {
		return domain.CurrencyInfo{}, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, code)
	}
	return info, nil
}

// Known reports whether code has display rules.
func (c *Converter) Known(code string) bool {
	_, ok := c.currencies[normalizeCode(code)]
	return ok
}

// Currencies returns the display table sorted by code.
func (c *Converter) Currencies() []domain.CurrencyInfo {
	out := make([]domain.CurrencyInfo, 0, len(c.currencies))
	for _, info := range c.currencies {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Round rounds amount to the display precision of code. Unknown codes keep
// the ledger precision.
func (c *Converter) Round(amount decimal.Decimal, code string) decimal.Decimal {
	info, err := c.Info(code)
	if err != nil {
		return roundLedger(amount)
	}
	return amount.Round(info.DecimalPlaces)
}

// Format renders amount for display. It never fails: an unknown code falls
// back to the raw number followed by the code.
func (c *Converter) Format(amount decimal.Decimal, code string) string {
	info, err := c.Info(code)
	if err != nil {
		raw := roundLedger(amount).String()
		if code = normalizeCode(code); code == "" {
			return raw
		}
		return raw + " " + code
	}

	rounded := amount.Round(info.DecimalPlaces)
	negative := rounded.IsNegative()
	digits := groupThousands(rounded.Abs().StringFixed(info.DecimalPlaces))

	out := strings.NewReplacer("{symbol}", info.Symbol, "{amount}", digits).Replace(info.Pattern)
	if negative {
		return "-" + out
	}
	return out
}

func snapshotRate(snap *domain.RateSnapshot, code string) (decimal.Decimal, bool) {
	if rate, ok := snap.Rates[code]; ok {
		return rate, true
	}
	if code != "" && code == normalizeCode(snap.Base) {
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

func groupThousands(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
