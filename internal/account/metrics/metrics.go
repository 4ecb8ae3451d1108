package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the account module.
type Metrics struct {
	AccountsRegistered prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
}

// New creates and registers all account module metrics.
func New() *Metrics {
	return &Metrics{
		AccountsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pesa_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_account_status_transitions_total",
			Help: "Account lifecycle transitions by action",
		}, []string{"action"}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	m.AccountsRegistered.Inc()
}

// IncrementTransition records a lifecycle transition.
func (m *Metrics) IncrementTransition(action string) {
	m.StatusTransitions.WithLabelValues(action).Inc()
}
