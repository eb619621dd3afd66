package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/metrics"
)

// MetricsService owns the process registry and the itemdesk collectors.
type MetricsService struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// NewMetrics creates a registry with the Go runtime, process and itemdesk collectors.
func NewMetrics(do.Injector) (*MetricsService, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &MetricsService{Registry: reg, Metrics: metrics.New(reg)}, nil
}
