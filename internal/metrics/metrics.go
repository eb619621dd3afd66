// Package metrics exposes Prometheus metrics for backend traffic.
//
// Metrics collected:
//   - itemdesk_backend_requests_total: backend calls by method, op and outcome
//   - itemdesk_backend_request_duration_seconds: backend call latency by op
//   - itemdesk_render_fallbacks_total: server renders that fell back to the empty state
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every itemdesk metric.
const Namespace = "itemdesk"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

// New registers the itemdesk collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend requests by outcome",
		}, []string{"method", "op", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_fallbacks_total",
			Help:      "Server renders that fell back to the empty state",
		}, []string{"op", "reason"}),
	}
}

// ObserveRequest records one backend request.
func (m *Metrics) ObserveRequest(method, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// RenderFallback records a server render that degraded to the empty state.
func (m *Metrics) RenderFallback(op, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op, reason).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
