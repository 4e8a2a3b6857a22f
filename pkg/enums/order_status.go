package enums

import "fmt"

// OrderStatus is the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusAssigned   OrderStatus = "Assigned"
	OrderStatusAccepted   OrderStatus = "Accepted"
	OrderStatusPickedUp   OrderStatus = "Picked Up"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Forward progression order. Cancelled sits outside the sequence.
var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusAssigned,
	OrderStatusAccepted,
	OrderStatusPickedUp,
	OrderStatusDelivered,
}

var validOrderStatuses = append(append([]OrderStatus{}, orderStatusSequence...), OrderStatusCancelled)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Rank returns the position in the forward sequence, or -1 for Cancelled and unknown values.
func (s OrderStatus) Rank() int {
	for i, candidate := range orderStatusSequence {
		if candidate == s {
			return i
		}
	}
	return -1
}

// RequiresDeliveryAgent reports whether the status only makes sense with an assigned agent.
func (s OrderStatus) RequiresDeliveryAgent() bool {
	return s.Rank() >= OrderStatusAssigned.Rank()
}

// ActiveDeliveryStatuses are the statuses shown on a delivery agent's dashboard.
func ActiveDeliveryStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusAssigned, OrderStatusAccepted, OrderStatusPickedUp}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
