package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for dispatched calls.
type Metrics struct {
	// Calls by operator and outcome ("ok" or an error code).
	Calls *prometheus.CounterVec

	// Call latency by operator, including the store write.
	CallLatency *prometheus.HistogramVec
}

// NewMetrics creates call metrics registered with reg. Pass a fresh
// prometheus.NewRegistry() in tests and CLI runs to avoid clashing with
// the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempo_dispatch_calls_total",
			Help: "Total dispatched calls by operator and outcome",
		}, []string{"operator", "outcome"}),

		CallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempo_dispatch_call_duration_seconds",
			Help:    "Duration of dispatched calls by operator",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"operator"}),
	}
}

// ObserveCall records one call.
func (m *Metrics) ObserveCall(operator, outcome string, d time.Duration) {
	if m != nil {
		m.Calls.WithLabelValues(operator, outcome).Inc()
		m.CallLatency.WithLabelValues(operator).Observe(d.Seconds())
	}
}
