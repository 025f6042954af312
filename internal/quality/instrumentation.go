package quality

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the gate counters into Prometheus.
type Metrics struct {
	RecordsProcessed   *prometheus.CounterVec
	RecordsQuarantined *prometheus.CounterVec
	RecordsCorrected   *prometheus.CounterVec
	RuleFailures       *prometheus.CounterVec
	Readiness          prometheus.Gauge
}

// NewMetrics creates and registers the gate metrics on the default
// registry. Call it once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_records_processed_total",
			Help: "Total records run through the quality gate by record type",
		}, []string{"record_type"}),

		RecordsQuarantined: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_records_quarantined_total",
			Help: "Total records quarantined by record type",
		}, []string{"record_type"}),

		RecordsCorrected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_records_corrected_total",
			Help: "Total records auto-corrected and accepted by record type",
		}, []string{"record_type"}),

		RuleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_rule_failures_total",
			Help: "Total validation rule failures by rule",
		}, []string{"rule"}),

		Readiness: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mia_production_ready",
			Help: "1 when every quality rate is above its configured threshold",
		}),
	}
}

// RecordProcessed increments the processed counter for a record type.
func (m *Metrics) RecordProcessed(recordType string) {
	m.RecordsProcessed.WithLabelValues(recordType).Inc()
}

// RecordQuarantined increments the quarantine counter for a record type.
func (m *Metrics) RecordQuarantined(recordType string) {
	m.RecordsQuarantined.WithLabelValues(recordType).Inc()
}

// RecordCorrected increments the correction counter for a record type.
func (m *Metrics) RecordCorrected(recordType string) {
	m.RecordsCorrected.WithLabelValues(recordType).Inc()
}

// RecordRuleFailure increments the failure counter for a rule.
func (m *Metrics) RecordRuleFailure(rule string) {
	m.RuleFailures.WithLabelValues(rule).Inc()
}

// SetReadiness publishes the latest readiness verdict.
func (m *Metrics) SetReadiness(ready bool) {
	if ready {
		m.Readiness.Set(1)
	} else {
		m.Readiness.Set(0)
	}
}
