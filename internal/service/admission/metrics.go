package admission

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admission pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Outcomes by result kind
	Outcomes *prometheus.CounterVec

	// Rejection reasons; one admission may add several
	Reasons *prometheus.CounterVec

	// Duration of a single admission including DNS lookups
	Latency prometheus.Histogram

	// Bulk operations by kind (import, copy) and outcome
	BulkRuns *prometheus.CounterVec
}

// NewMetrics registers the admission metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listguard_admission_outcomes_total",
			Help: "Admission outcomes by result kind",
		}, []string{"kind"}),

		Reasons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listguard_admission_rejection_reasons_total",
			Help: "Rejection reasons recorded by the admission pipeline",
		}, []string{"reason"}),

		Latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "listguard_admission_duration_seconds",
			Help:    "Duration of a single admission",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		BulkRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listguard_bulk_runs_total",
			Help: "Bulk imports and copies by outcome",
		}, []string{"op", "outcome"}),
	}
}

// ObserveResult records one admission.
func (m *Metrics) ObserveResult(r Result, d time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(string(r.Kind)).Inc()
	for _, reason := range r.Reasons {
		m.Reasons.WithLabelValues(reason).Inc()
	}
	m.Latency.Observe(d.Seconds())
}

// IncrementBulk records a finished or refused bulk run.
func (m *Metrics) IncrementBulk(op, outcome string) {
	if m != nil {
		m.BulkRuns.WithLabelValues(op, outcome).Inc()
	}
}
