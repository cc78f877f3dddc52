package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Database metrics
	DatabaseTransactions *prometheus.CounterVec
	DatabaseLatency      *prometheus.HistogramVec

	// Domain metrics
	StatusTransitions *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		DatabaseTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_total",
			Help:      "Total number of store transactions by outcome",
		}, []string{"status"}),
		DatabaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_transaction_duration_seconds",
			Help:      "Duration of store transactions",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"status"}),

		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Committed lifecycle transitions per entity and target status",
		}, []string{"entity", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestDuration,
			m.RequestTotal,
			m.ErrorTotal,
			m.DatabaseTransactions,
			m.DatabaseLatency,
			m.StatusTransitions,
		)
	}
	return m
}

// ObserveTx records one finished transaction. Safe on a nil receiver.
func (m *Metrics) ObserveTx(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "commit"
	if err != nil {
		status = "rollback"
	}
	m.DatabaseTransactions.WithLabelValues(status).Inc()
	m.DatabaseLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// Transition records a committed status change. Safe on a nil receiver.
func (m *Metrics) Transition(entity, status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(entity, status).Inc()
}
