package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMarketplaceMetricsCounters(t *testing.T) {
	m := NewMarketplaceMetrics(prometheus.NewRegistry())

	m.IncCheckout("COD", "created")
	m.IncCheckout("COD", "created")
	m.IncCheckout("ONLINE", "gateway_error")
	m.IncWebhook("payment.captured", "applied")
	m.IncTransition("Pending", "Processing", "seller")
	m.IncPublished("order.created", "published")
	m.IncPublished("", "retry")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("COD", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("ONLINE", "gateway_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("payment.captured", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Pending", "Processing", "seller")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("unknown", "retry")))
}

func TestMarketplaceMetricsNilSafe(t *testing.T) {
	var m *MarketplaceMetrics
	m.IncCheckout("COD", "created")
	m.IncWebhook("", "")

	noop := NewMarketplaceMetrics(nil)
	noop.IncTransition("Pending", "Cancelled", "admin")
}
