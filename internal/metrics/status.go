package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/status"
)

// Status is the Prometheus-based implementation of the [status.Metrics]
// interface.
type Status struct {
	queries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	combined *prometheus.GaugeVec
}

// NewStatus registers the status aggregation metrics in reg and returns a
// properly initialized *Status.
func NewStatus(namespace string, reg prometheus.Registerer) (m *Status, err error) {
	const (
		queriesTotal = "queries_total"
		queryLatency = "query_duration_seconds"
		combined     = "combined"
	)

	m = &Status{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      queriesTotal,
			Namespace: namespace,
			Subsystem: subsystemStatus,
			Help:      "The number of instance status queries by instance and outcome.",
		}, []string{"instance", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:      queryLatency,
			Namespace: namespace,
			Subsystem: subsystemStatus,
			Help:      "The duration of instance status queries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"instance"}),
		combined: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:      combined,
			Namespace: namespace,
			Subsystem: subsystemStatus,
			Help:      "The combined protection status. The current status has value 1.",
		}, []string{"status"}),
	}

	err = register(reg, m.queries, m.latency, m.combined)
	if err != nil {
		return nil, fmt.Errorf("registering status metrics: %w", err)
	}

	return m, nil
}

// ObserveInstance implements the [status.Metrics] interface for *Status.
func (m *Status) ObserveInstance(_ context.Context, r status.InstanceResult) {
	result := r.Status().String()
	if r.Err != nil {
		result = adguard.KindOf(r.Err).String()
	}

	m.queries.WithLabelValues(r.Name, result).Inc()
	m.latency.WithLabelValues(r.Name).Observe(r.Latency.Seconds())
}

// ObserveCombined implements the [status.Metrics] interface for *Status.
func (m *Status) ObserveCombined(_ context.Context, s status.Status) {
	for _, st := range []status.Status{status.Enabled, status.Disabled, status.Error} {
		v := 0.0
		if st == s {
			v = 1
		}

		m.combined.WithLabelValues(st.String()).Set(v)
	}
}
