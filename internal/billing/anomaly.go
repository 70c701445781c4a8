// Package billing holds the fee, currency and invoice ledger rules.
//
// Every computation here is synchronous and free of I/O. Amounts are
// decimal.Decimal values, so NaN and Infinity cannot appear inside the ledger;
// float inputs and out-of-range values are clamped at the boundary and each
// clamp is reported to an AnomalySink instead of failing the calculation.
package billing

import (
	"go.uber.org/zap"
)

// Anomaly describes one clamped or coerced intermediate value.
type Anomaly struct {
	Op     string
	Field  string
	Value  string
	Reason string
}

// AnomalySink receives computation anomalies.
type AnomalySink interface {
	Report(a Anomaly)
}

// AnomalySinkFunc adapts a function to AnomalySink.
type AnomalySinkFunc func(a Anomaly)

// Report calls f(a).
func (f AnomalySinkFunc) Report(a Anomaly) { f(a) }

// Discard drops every anomaly.
var Discard AnomalySink = AnomalySinkFunc(func(Anomaly) {})

type logSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink that logs each anomaly as a warning.
func NewLogSink(logger *zap.Logger) AnomalySink {
	return &logSink{logger: logger.Named("billing_anomaly")}
}

func (s *logSink) Report(a Anomaly) {
	s.logger.Warn("computation anomaly",
		zap.String("op", a.Op),
		zap.String("field", a.Field),
		zap.String("value", a.Value),
		zap.String("reason", a.Reason),
	)
}

func sinkOrDiscard(sink AnomalySink) AnomalySink {
	if sink == nil {
		return Discard
	}
	return sink
}
