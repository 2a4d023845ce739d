package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records operational counters for the order engine.
type OrderMetrics struct {
	created        *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	createDuration *prometheus.HistogramVec
	stockMovements *prometheus.CounterVec
}

// NewOrderMetrics registers the order engine metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions, by edge.",
	}, []string{"from", "to"})
	createDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "Duration of order creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock ledger entries, by reason.",
	}, []string{"reason"})
	reg.MustRegister(created, transitions, createDuration, stockMovements)
	return &OrderMetrics{
		created:        created,
		transitions:    transitions,
		createDuration: createDuration,
		stockMovements: stockMovements,
	}
}

// IncCreated increments the creation counter with the given outcome.
func (m *OrderMetrics) IncCreated(outcome string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition increments the transition counter for the given edge.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveCreateDuration records how long an order creation took.
func (m *OrderMetrics) ObserveCreateDuration(outcome string, duration time.Duration) {
	if m == nil || m.createDuration == nil {
		return
	}
	m.createDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncStockMovement increments the ledger counter for the given reason.
func (m *OrderMetrics) IncStockMovement(reason string) {
	if m == nil || m.stockMovements == nil {
		return
	}
	m.stockMovements.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
