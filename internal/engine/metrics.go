package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// compareDuration tracks the time taken for full basket comparisons.
	compareDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compare_engine_duration_seconds",
		Help:    "Time taken for basket comparison requests",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	})

	// compareErrors tracks comparison errors by kind.
	compareErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_engine_errors_total",
		Help: "Total number of comparison errors by kind",
	}, []string{"kind"}) // kind: invalid_input, no_candidates, internal

	// basketSize tracks the distribution of basket sizes.
	basketSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compare_engine_basket_items_count",
		Help:    "Number of items in comparison requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// candidateCount tracks the number of candidate stores per comparison.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compare_engine_candidate_stores_count",
		Help:    "Number of candidate stores considered per comparison",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// verdicts tracks the distribution of verdicts issued.
	verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_engine_verdicts_total",
		Help: "Total number of verdicts issued by class",
	}, []string{"verdict"})

	// routingOverrides tracks how often a live routing estimate replaced
	// the geodesic fallback.
	routingOverrides = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compare_engine_routing_overrides_total",
		Help: "Total number of store distances supplied by the routing service",
	})

	// willingnessUpdates tracks preference learner updates by direction.
	willingnessUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_engine_willingness_updates_total",
		Help: "Total number of willingness score updates by direction",
	}, []string{"direction"}) // direction: up, down
)

// MetricsRecorder provides methods to record engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCompareDuration records the duration of a comparison request.
func (m *MetricsRecorder) RecordCompareDuration(d time.Duration) {
	compareDuration.Observe(d.Seconds())
}

// RecordCompareError records a comparison error by kind.
func (m *MetricsRecorder) RecordCompareError(kind string) {
	compareErrors.WithLabelValues(kind).Inc()
}

// RecordBasketSize records the size of a basket.
func (m *MetricsRecorder) RecordBasketSize(size int) {
	basketSize.Observe(float64(size))
}

// RecordCandidateCount records the number of candidate stores.
func (m *MetricsRecorder) RecordCandidateCount(count int) {
	candidateCount.Observe(float64(count))
}

// RecordVerdict records a verdict classification.
func (m *MetricsRecorder) RecordVerdict(verdict string) {
	verdicts.WithLabelValues(verdict).Inc()
}

// RecordRoutingOverride records a distance supplied by the routing service.
func (m *MetricsRecorder) RecordRoutingOverride() {
	routingOverrides.Inc()
}

// RecordWillingnessUpdate records a preference learner update.
func (m *MetricsRecorder) RecordWillingnessUpdate(delta float64) {
	if delta >= 0 {
		willingnessUpdates.WithLabelValues("up").Inc()
	} else {
		willingnessUpdates.WithLabelValues("down").Inc()
	}
}
