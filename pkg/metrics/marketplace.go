package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics counts checkout, payment webhook and fulfillment activity.
type MarketplaceMetrics struct {
	checkouts   *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	published   *prometheus.CounterVec
}

// NewMarketplaceMetrics registers the marketplace counters on reg. A nil registerer yields a no-op recorder.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders placed through checkout.",
	}, []string{"payment_method", "result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Payment gateway webhook deliveries.",
	}, []string{"event", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Fulfillment status transitions applied.",
	}, []string{"from", "to", "actor"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox rows handed to the broker.",
	}, []string{"event_type", "result"})
	reg.MustRegister(checkouts, webhooks, transitions, published)
	return &MarketplaceMetrics{
		checkouts:   checkouts,
		webhooks:    webhooks,
		transitions: transitions,
		published:   published,
	}
}

func (m *MarketplaceMetrics) IncCheckout(paymentMethod, result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(result)).Inc()
}

func (m *MarketplaceMetrics) IncWebhook(event, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func (m *MarketplaceMetrics) IncTransition(from, to, actor string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(actor)).Inc()
}

func (m *MarketplaceMetrics) IncPublished(eventType, result string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
