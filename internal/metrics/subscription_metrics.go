package metrics

import (
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Lifecycle operations
const (
	OperationCreate = "create"
	OperationCancel = "cancel"
	OperationSwitch = "switch"
)

// Outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SubscriptionMetrics records subscription lifecycle activity
type SubscriptionMetrics interface {
	IncOperation(operation, outcome string)
	ObservePayment(operation string, amount decimal.Decimal)
	ObserveProrationCredit(credit decimal.Decimal)
}

type subscriptionMetrics struct {
	log             *logger.Logger
	operations      *prometheus.CounterVec
	paymentAmount   *prometheus.HistogramVec
	prorationCredit prometheus.Histogram
}

func NewSubscriptionMetrics(registry *prometheus.Registry, log *logger.Logger) SubscriptionMetrics {
	factory := promauto.With(registry)

	return &subscriptionMetrics{
		log: log,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_operations_total",
				Help: "Subscription lifecycle operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		paymentAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subscription_payment_amount",
				Help:    "Amounts charged by subscription operations",
				Buckets: prometheus.ExponentialBuckets(1, 10, 6), // 1 .. 100000
			},
			[]string{"operation"},
		),
		prorationCredit: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subscription_proration_credit",
				Help:    "Remaining credit applied when switching plans",
				Buckets: prometheus.ExponentialBuckets(1, 10, 6),
			},
		),
	}
}

func (m *subscriptionMetrics) IncOperation(operation, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *subscriptionMetrics) ObservePayment(operation string, amount decimal.Decimal) {
	m.paymentAmount.WithLabelValues(operation).Observe(amount.InexactFloat64())
}

func (m *subscriptionMetrics) ObserveProrationCredit(credit decimal.Decimal) {
	m.prorationCredit.Observe(credit.InexactFloat64())
}
