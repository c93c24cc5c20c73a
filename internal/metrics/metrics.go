// Package metrics exposes Prometheus instruments for the upload pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "logo_gallery"

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	uploadDecisions  *prometheus.CounterVec
	extraction       prometheus.Histogram
	comparisonErrors prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploadDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_decisions_total",
			Help:      "Upload outcomes by reason (accepted or the rejection reason).",
		}, []string{"reason"}),
		extraction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feature_extraction_seconds",
			Help:      "Time spent extracting image features.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		comparisonErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_errors_total",
			Help:      "Similarity comparisons skipped because stored features were unusable.",
		}),
	}
	reg.MustRegister(m.uploadDecisions, m.extraction, m.comparisonErrors)
	return m
}

// ObserveDecision counts one upload outcome.
func (m *Metrics) ObserveDecision(reason string) {
	m.uploadDecisions.WithLabelValues(reason).Inc()
}

// ObserveExtraction records one feature extraction.
func (m *Metrics) ObserveExtraction(d time.Duration) {
	m.extraction.Observe(d.Seconds())
}

// ObserveComparisonErrors adds n skipped comparisons.
func (m *Metrics) ObserveComparisonErrors(n int) {
	m.comparisonErrors.Add(float64(n))
}
