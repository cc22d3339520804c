package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	claimsTotal            *prometheus.CounterVec
	attemptsRecordedTotal  *prometheus.CounterVec
	stateConflictsTotal    prometheus.Counter
	aggregationSeconds     prometheus.Histogram
	inconsistentAggregates prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the grading
// pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		claimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_claims_total",
			Help: "Total dispatch claims, by grader type and outcome.",
		}, []string{"grader_type", "outcome"})

		attemptsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_attempts_recorded_total",
			Help: "Total grading attempts recorded, by grader type and status.",
		}, []string{"grader_type", "status"})

		stateConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_state_conflicts_total",
			Help: "Total state transitions rejected by the CAS precondition.",
		})

		aggregationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_aggregation_seconds",
			Help:    "Latency distribution for result aggregation.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		inconsistentAggregates = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_inconsistent_histories_total",
			Help: "Total aggregations that found no matching history pattern.",
		})

		prometheus.MustRegister(claimsTotal, attemptsRecordedTotal, stateConflictsTotal, aggregationSeconds, inconsistentAggregates)
	})
}

// Claims exposes the dispatch claim counter.
func Claims() *prometheus.CounterVec {
	RegisterMetrics()
	return claimsTotal
}

// AttemptsRecorded exposes the attempt counter.
func AttemptsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsRecordedTotal
}

// StateConflicts exposes the CAS conflict counter.
func StateConflicts() prometheus.Counter {
	RegisterMetrics()
	return stateConflictsTotal
}

// AggregationLatency exposes the aggregation latency histogram.
func AggregationLatency() prometheus.Histogram {
	RegisterMetrics()
	return aggregationSeconds
}

// InconsistentAggregates exposes the inconsistent-history counter.
func InconsistentAggregates() prometheus.Counter {
	RegisterMetrics()
	return inconsistentAggregates
}
