package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess      = "success"
	outcomeFailure      = "failure"
	outcomeUnauthorized = "unauthorized"
	outcomeError        = "error"
)

// Metrics counts what the transport does with 401 responses. A nil *Metrics
// records nothing.
type Metrics struct {
	Refresh      *prometheus.CounterVec // refreshes awaited per request (success/failure)
	Replay       *prometheus.CounterVec // replays sent (success/unauthorized/error)
	Unauthorized prometheus.Counter     // first attempts answered with 401
}

// NewMetrics registers the transport counters on reg under namespace
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Refresh: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Requests that waited on a session refresh, by outcome",
			},
			[]string{"outcome"},
		),
		Replay: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replay_total",
				Help:      "Requests replayed after a refresh, by outcome",
			},
			[]string{"outcome"},
		),
		Unauthorized: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unauthorized_total",
				Help:      "First attempts rejected with 401",
			},
		),
	}
}

func (m *Metrics) unauthorized() {
	if m == nil {
		return
	}
	m.Unauthorized.Inc()
}

func (m *Metrics) refreshed(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Refresh.WithLabelValues(outcomeFailure).Inc()
		return
	}
	m.Refresh.WithLabelValues(outcomeSuccess).Inc()
}

func (m *Metrics) replayed(outcome string) {
	if m == nil {
		return
	}
	m.Replay.WithLabelValues(outcome).Inc()
}
