package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admission module.
type Metrics struct {
	// Submissions by reconciler action and rejection reason
	Submissions *prometheus.CounterVec

	// Full submission latency including store round-trips
	SubmitLatency prometheus.Histogram

	// Fingerprint verification outcomes
	FingerprintChecks *prometheus.CounterVec
}

// New creates a Metrics instance with all admission metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_admission_submissions_total",
			Help: "Total check-in submissions by action and reason",
		}, []string{"action", "reason"}),

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_admission_submit_duration_seconds",
			Help:    "Duration of full submission handling including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		FingerprintChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_admission_fingerprint_checks_total",
			Help: "Fingerprint verifications by result",
		}, []string{"result"}), // result: "verified", "tampered", "legacy"
	}
}

// IncrementSubmission records a reconciled submission.
func (m *Metrics) IncrementSubmission(action, reason string) {
	if m != nil {
		m.Submissions.WithLabelValues(action, reason).Inc()
	}
}

// ObserveSubmitLatency records the total submission duration.
func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

// IncrementFingerprintCheck records a fingerprint verification result.
func (m *Metrics) IncrementFingerprintCheck(result string) {
	if m != nil {
		m.FingerprintChecks.WithLabelValues(result).Inc()
	}
}
