package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "khata"

// Order attempt outcomes.
const (
	OutcomeSuccess           = "success"
	OutcomeValidationFailed  = "validation_failed"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeCompensated       = "compensated"
	OutcomeCompensationError = "compensation_failed"
)

// Metrics holds the workflow collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	orderAttempts        *prometheus.CounterVec
	orderDuration        *prometheus.HistogramVec
	compensationFailures *prometheus.CounterVec
	ledgerAppends        *prometheus.CounterVec
	balanceCacheLookups  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		orderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_attempts_total",
			Help: "Order creation attempts by outcome.",
		}, []string{"outcome"}),
		orderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "order_attempt_duration_seconds",
			Help:    "Duration of order creation attempts, compensation included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		compensationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "compensation_failures_total",
			Help: "Undo steps that failed and need manual reconciliation.",
		}, []string{"step"}),
		ledgerAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_appends_total",
			Help: "Khata entries appended, by kind.",
		}, []string{"kind"}),
		balanceCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "balance_cache_lookups_total",
			Help: "Balance cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.orderAttempts, m.orderDuration, m.compensationFailures, m.ledgerAppends, m.balanceCacheLookups)
	return m
}

// ObserveOrderAttempt records one finished CreateOrder call.
func (m *Metrics) ObserveOrderAttempt(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.orderAttempts.WithLabelValues(outcome).Inc()
	m.orderDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// CompensationFailed records an undo step that could not be applied.
func (m *Metrics) CompensationFailed(step string) {
	if m == nil {
		return
	}
	m.compensationFailures.WithLabelValues(step).Inc()
}

// LedgerAppended records a new khata entry; kind is "order" or "manual".
func (m *Metrics) LedgerAppended(kind string) {
	if m == nil {
		return
	}
	m.ledgerAppends.WithLabelValues(kind).Inc()
}

// BalanceCacheLookup records a cache "hit", "miss" or "error".
func (m *Metrics) BalanceCacheLookup(result string) {
	if m == nil {
		return
	}
	m.balanceCacheLookups.WithLabelValues(result).Inc()
}
