package billing

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ledgerPlaces is the precision of every derived ledger amount. It matches
// the NUMERIC(20,4) columns so a stored invoice recomputes to the same values.
const ledgerPlaces int32 = 4

var hundred = decimal.NewFromInt(100)

func roundLedger(d decimal.Decimal) decimal.Decimal {
	return d.Round(ledgerPlaces)
}

// finiteNonNegative clamps NaN, Inf and negative floats to 0.
func finiteNonNegative(sink AnomalySink, op, field string, v float64) float64 {
	switch {
	case math.IsNaN(v):
		sink.Report(Anomaly{Op: op, Field: field, Value: "NaN", Reason: "non-finite input coerced to 0"})
		return 0
	case math.IsInf(v, 0):
		sink.Report(Anomaly{Op: op, Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "non-finite input coerced to 0"})
		return 0
	case v < 0:
		sink.Report(Anomaly{Op: op, Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "negative input coerced to 0"})
		return 0
	}
	return v
}

func nonNegativeInt(sink AnomalySink, op, field string, v int) int {
	if v < 0 {
		sink.Report(Anomaly{Op: op, Field: field, Value: strconv.Itoa(v), Reason: "negative input coerced to 0"})
		return 0
	}
	return v
}

func nonNegative(sink AnomalySink, op, field string, d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		sink.Report(Anomaly{Op: op, Field: field, Value: d.String(), Reason: "negative value coerced to 0"})
		return decimal.Zero
	}
	return d
}

// clampRange limits d to [lo, hi], reporting when a clamp happens.
func clampRange(sink AnomalySink, op, field string, d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		sink.Report(Anomaly{Op: op, Field: field, Value: d.String(), Reason: "below " + lo.String() + ", clamped"})
		return lo
	}
	if d.GreaterThan(hi) {
		sink.Report(Anomaly{Op: op, Field: field, Value: d.String(), Reason: "above " + hi.String() + ", clamped"})
		return hi
	}
	return d
}

// FromFloat converts a float amount to a decimal, coercing non-finite values to 0.
func FromFloat(sink AnomalySink, field string, v float64) decimal.Decimal {
	sink = sinkOrDiscard(sink)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		sink.Report(Anomaly{Op: "from_float", Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "non-finite input coerced to 0"})
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
