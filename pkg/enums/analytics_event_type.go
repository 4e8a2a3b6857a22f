package enums

// AnalyticsEventType is the event_type column written to the warehouse.
type AnalyticsEventType string

const (
	AnalyticsEventOrderCreated       AnalyticsEventType = "order_created"
	AnalyticsEventOrderPaid          AnalyticsEventType = "order_paid"
	AnalyticsEventOrderPaymentFailed AnalyticsEventType = "order_payment_failed"
	AnalyticsEventOrderStatusChanged AnalyticsEventType = "order_status_changed"
	AnalyticsEventProductCreated     AnalyticsEventType = "product_created"
)

var warehouseEvents = map[OutboxEventType]AnalyticsEventType{
	EventOrderCreated:       AnalyticsEventOrderCreated,
	EventOrderPaid:          AnalyticsEventOrderPaid,
	EventOrderPaymentFailed: AnalyticsEventOrderPaymentFailed,
	EventOrderStatusChanged: AnalyticsEventOrderStatusChanged,
	EventProductCreated:     AnalyticsEventProductCreated,
}

var analyticsEventTypes = set[AnalyticsEventType]{
	AnalyticsEventOrderCreated,
	AnalyticsEventOrderPaid,
	AnalyticsEventOrderPaymentFailed,
	AnalyticsEventOrderStatusChanged,
	AnalyticsEventProductCreated,
}

func (a AnalyticsEventType) IsValid() bool { return analyticsEventTypes.has(a) }

// AnalyticsEventFor maps a domain event to its warehouse event type.
func AnalyticsEventFor(event OutboxEventType) (AnalyticsEventType, bool) {
	a, ok := warehouseEvents[event]
	return a, ok
}

func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	return analyticsEventTypes.parse("analytics event type", value)
}
