package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the request workflow.
type Metrics struct {
	RequestsCreated  *prometheus.CounterVec
	RequestsResolved *prometheus.CounterVec
}

// New creates and registers all workflow metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_requests_created_total",
			Help: "Workflow requests created by kind",
		}, []string{"kind"}),
		RequestsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_requests_resolved_total",
			Help: "Workflow requests reaching a terminal state by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// IncrementCreated records a created request.
func (m *Metrics) IncrementCreated(kind string) {
	m.RequestsCreated.WithLabelValues(kind).Inc()
}

// IncrementResolved records a terminal transition.
func (m *Metrics) IncrementResolved(kind, outcome string) {
	m.RequestsResolved.WithLabelValues(kind, outcome).Inc()
}
