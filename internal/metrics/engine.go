package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tonhe/agtoggle/internal/indicator"
)

// Engine is the Prometheus-based implementation of the [engine.Metrics]
// interface.
type Engine struct {
	refreshes *prometheus.CounterVec
	duration  prometheus.Histogram
	symbol    *prometheus.GaugeVec
}

// NewEngine registers the reconciliation metrics in reg and returns a properly
// initialized *Engine.
func NewEngine(namespace string, reg prometheus.Registerer) (m *Engine, err error) {
	m = &Engine{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "refreshes_total",
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Help: "The number of polls. " +
				"wrote=1 means that the poll changed the indicator.",
		}, []string{"wrote"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:      "refresh_duration_seconds",
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Help:      "The duration of a full poll of all instances.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		symbol: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "indicator",
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Help:      "The displayed indicator symbol. The current symbol has value 1.",
		}, []string{"symbol"}),
	}

	err = register(reg, m.refreshes, m.duration, m.symbol)
	if err != nil {
		return nil, fmt.Errorf("registering engine metrics: %w", err)
	}

	return m, nil
}

// ObserveRefresh implements the [engine.Metrics] interface for *Engine.
func (m *Engine) ObserveRefresh(_ context.Context, dur time.Duration, wrote bool) {
	m.refreshes.WithLabelValues(BoolString(wrote)).Inc()
	m.duration.Observe(dur.Seconds())
}

// SetIndicator implements the [engine.Metrics] interface for *Engine.
func (m *Engine) SetIndicator(_ context.Context, sym indicator.Symbol) {
	all := []indicator.Symbol{
		indicator.Unknown,
		indicator.On,
		indicator.Off,
		indicator.Err,
		indicator.Ok,
	}

	for _, s := range all {
		v := 0.0
		if s == sym {
			v = 1
		}

		m.symbol.WithLabelValues(symbolLabel(s)).Set(v)
	}
}

// symbolLabel returns the label value for sym.
func symbolLabel(sym indicator.Symbol) (l string) {
	if sym == indicator.Unknown {
		return "none"
	}

	return string(sym)
}
