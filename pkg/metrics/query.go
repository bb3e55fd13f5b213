package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics records metadata for analytic queries.
type QueryMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewQueryMetrics registers the analytic query metrics on the provided registerer.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	if reg == nil {
		return &QueryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insight_query_duration_seconds",
		Help:    "Duration of analytic queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_query_success",
		Help: "Successful analytic query executions.",
	}, []string{"query"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_query_failure",
		Help: "Failed analytic query executions.",
	}, []string{"query"})
	reg.MustRegister(duration, success, failure)
	return &QueryMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named query.
func (q *QueryMetrics) ObserveDuration(query string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(query)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named query.
func (q *QueryMetrics) IncSuccess(query string) {
	if q == nil || q.success == nil {
		return
	}
	q.success.WithLabelValues(normalizeLabel(query)).Inc()
}

// IncFailure increments the failure counter for the named query.
func (q *QueryMetrics) IncFailure(query string) {
	if q == nil || q.failure == nil {
		return
	}
	q.failure.WithLabelValues(normalizeLabel(query)).Inc()
}

func normalizeLabel(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}
