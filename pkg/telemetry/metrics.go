package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Metrics provides Prometheus metrics for deployment outcomes. The zero
// value (or a nil pointer) is a no-op; metrics only record when constructed
// through NewMetrics.
type Metrics struct {
	deploymentsCompleted *prometheus.CounterVec
	deploymentDuration   *prometheus.HistogramVec
	batchesCompleted     *prometheus.CounterVec
	batchCustomers       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		deploymentsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deployments_completed_total",
				Help:      "Total number of completed deployment attempts",
			},
			[]string{"environment", "status"},
		),
		deploymentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "deployment_duration_seconds",
				Help:      "Duration of deployment attempts in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"environment", "status"},
		),
		batchesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_completed_total",
				Help:      "Total number of completed batch runs",
			},
			[]string{"environment"},
		),
		batchCustomers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_customers_total",
				Help:      "Total customers deployed through batches by outcome",
			},
			[]string{"environment", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.deploymentsCompleted,
		m.deploymentDuration,
		m.batchesCompleted,
		m.batchCustomers,
	)

	return m
}

// ObserveDeployment records one finished deployment attempt. Part of the
// deploy.MetricsRecorder contract.
func (m *Metrics) ObserveDeployment(environment string, status deploy.Status, elapsed time.Duration) {
	if m == nil || m.registry == nil {
		return
	}
	m.deploymentsCompleted.WithLabelValues(environment, string(status)).Inc()
	m.deploymentDuration.WithLabelValues(environment, string(status)).Observe(elapsed.Seconds())
}

// ObserveBatch records one finished batch run. Part of the
// deploy.MetricsRecorder contract.
func (m *Metrics) ObserveBatch(environment string, succeeded, failed int) {
	if m == nil || m.registry == nil {
		return
	}
	m.batchesCompleted.WithLabelValues(environment).Inc()
	m.batchCustomers.WithLabelValues(environment, "succeeded").Add(float64(succeeded))
	m.batchCustomers.WithLabelValues(environment, "failed").Add(float64(failed))
}

// Handler returns an HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
