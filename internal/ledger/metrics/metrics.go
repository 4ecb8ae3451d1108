package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	TransfersSettled  prometheus.Counter
	TransfersRejected *prometheus.CounterVec
	FeesCharged       prometheus.Counter
}

// New creates and registers all ledger module metrics.
func New() *Metrics {
	return &Metrics{
		TransfersSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pesa_ledger_transfers_settled_total",
			Help: "Total number of settled peer transfers",
		}),
		TransfersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_ledger_transfers_rejected_total",
			Help: "Transfers rejected before settlement by reason",
		}, []string{"reason"}),
		FeesCharged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pesa_ledger_fees_charged_total",
			Help: "Total fee units collected on transfers",
		}),
	}
}

// IncrementSettled records a settled transfer.
func (m *Metrics) IncrementSettled() {
	m.TransfersSettled.Inc()
}

// IncrementRejected records a rejected transfer.
func (m *Metrics) IncrementRejected(reason string) {
	m.TransfersRejected.WithLabelValues(reason).Inc()
}

// AddFee records fee units collected.
func (m *Metrics) AddFee(fee int64) {
	m.FeesCharged.Add(float64(fee))
}
