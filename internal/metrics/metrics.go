package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors shared by the store and the HTTP layer.
type Metrics struct {
	StoreOpsTotal   *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec

	HTTPRequestsTotal *prometheus.CounterVec
}

// New registers the collectors on first use and returns the shared set.
//
// Metrics:
//   - repo_store_ops_total{op,outcome} - document store calls by outcome ("ok" or "error")
//   - repo_store_op_duration_seconds{op} - document store call latency
//   - repo_http_requests_total{method,route,status} - served HTTP requests
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			StoreOpsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "repo_store_ops_total",
					Help: "Total number of document store operations",
				},
				[]string{"op", "outcome"},
			),
			StoreOpDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "repo_store_op_duration_seconds",
					Help:    "Duration of document store operations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"op"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "repo_http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"method", "route", "status"},
			),
		}
	})
	return globalMetrics
}

// ObserveStoreOp records one document store call.
func (m *Metrics) ObserveStoreOp(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreOpsTotal.WithLabelValues(op, outcome).Inc()
	m.StoreOpDuration.WithLabelValues(op).Observe(seconds)
}
