package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attestation write and read paths.
type Metrics struct {
	// Document uploads by stage (provisional, proof) and outcome
	UploadOutcome *prometheus.CounterVec

	// Ledger anchor outcomes by error code or "confirmed"
	AnchorOutcome *prometheus.CounterVec

	// Time from anchor submission to settlement or failure
	AnchorDuration prometheus.Histogram

	// Writes that started from a fresh document, by reason
	ResolveFallbacks *prometheus.CounterVec

	// List entries returned without document details
	DegradedEntries prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		UploadOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_attestation_uploads_total",
			Help: "Composite document uploads by stage and outcome",
		}, []string{"stage", "outcome"}),

		AnchorOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_attestation_anchors_total",
			Help: "Ledger anchor writes by outcome",
		}, []string{"outcome"}),

		AnchorDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "keystone_attestation_anchor_duration_seconds",
			Help:    "Duration of ledger anchor writes including settlement wait",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		}),

		ResolveFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_attestation_resolve_fallbacks_total",
			Help: "Writes that synthesized a fresh composite document",
		}, []string{"reason"}), // reason: "no_history", "ledger_error", "fetch_error"

		DegradedEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keystone_attestation_degraded_entries_total",
			Help: "Verification list entries whose document could not be read",
		}),
	}
}

func (m *Metrics) IncrementUpload(stage, outcome string) {
	if m != nil {
		m.UploadOutcome.WithLabelValues(stage, outcome).Inc()
	}
}

func (m *Metrics) ObserveAnchor(outcome string, d time.Duration) {
	if m != nil {
		m.AnchorOutcome.WithLabelValues(outcome).Inc()
		m.AnchorDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementResolveFallback(reason string) {
	if m != nil {
		m.ResolveFallbacks.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementDegraded() {
	if m != nil {
		m.DegradedEntries.Inc()
	}
}
