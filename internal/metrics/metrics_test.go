package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionMetrics(t *testing.T) {
	registry := NewRegistry()
	m := NewSubscriptionMetrics(registry, logger.NewNoopLogger()).(*subscriptionMetrics)

	m.IncOperation(OperationCreate, OutcomeSuccess)
	m.IncOperation(OperationCreate, OutcomeSuccess)
	m.IncOperation(OperationSwitch, OutcomeFailure)
	m.ObservePayment(OperationSwitch, decimal.NewFromInt(35))
	m.ObserveProrationCredit(decimal.NewFromInt(15))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationCreate, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationSwitch, OutcomeFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.paymentAmount))
	assert.Equal(t, 1, testutil.CollectAndCount(m.prorationCredit))
}

func TestHTTPMetrics(t *testing.T) {
	registry := NewRegistry()
	m := NewHTTPMetrics(registry).(*httpMetrics)

	m.ObserveRequest(http.MethodGet, "/v1/plans", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/v1/plans", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/plans", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/plans", "4xx")))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}
