package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	gradingsTotal          *prometheus.CounterVec
	sessionsFinalizedTotal *prometheus.CounterVec
	pendingReviewGauge     prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the grading
// and placement services. Exposing them over HTTP is the host application's
// concern.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_gradings_total",
			Help: "Total number of answers graded, by question type and verdict.",
		}, []string{"question_type", "verdict"})

		sessionsFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_sessions_finalized_total",
			Help: "Total number of sessions finalized, by manual-grading flag.",
		}, []string{"needs_manual_grading"})

		pendingReviewGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "placement_pending_reviews",
			Help: "Answers currently awaiting manual review.",
		})

		prometheus.MustRegister(gradingsTotal, sessionsFinalizedTotal, pendingReviewGauge)
	})
}

// Gradings exposes the counter for graded answers.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// SessionsFinalized exposes the counter for finalized sessions.
func SessionsFinalized() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionsFinalizedTotal
}

// PendingReviews exposes the gauge tracking the manual review backlog.
func PendingReviews() prometheus.Gauge {
	RegisterMetrics()
	return pendingReviewGauge
}
