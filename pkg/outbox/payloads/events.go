package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// OrderLineItem is a snapshot of one purchased line.
type OrderLineItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	Name           string    `json:"name"`
	UnitPricePaise int64     `json:"unit_price_paise"`
	Qty            int       `json:"qty"`
	SubtotalPaise  int64     `json:"subtotal_paise"`
}

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID                uuid.UUID           `json:"order_id"`
	UserID                 *uuid.UUID          `json:"user_id,omitempty"`
	TotalPaise             int64               `json:"total_paise"`
	PaymentMethod          enums.PaymentMethod `json:"payment_method"`
	PaymentStatus          enums.PaymentStatus `json:"payment_status"`
	ExternalPaymentOrderID *string             `json:"external_payment_order_id,omitempty"`
	VendorIDs              []uuid.UUID         `json:"vendor_ids"`
	LineItems              []OrderLineItem     `json:"line_items"`
	City                   string              `json:"city"`
	Pincode                string              `json:"pincode"`
}

// OrderPaidEvent records a captured gateway payment.
type OrderPaidEvent struct {
	OrderID                uuid.UUID `json:"order_id"`
	ExternalPaymentOrderID string    `json:"external_payment_order_id"`
	ExternalPaymentID      string    `json:"external_payment_id"`
	AmountPaise            int64     `json:"amount_paise"`
	PaidAt                 time.Time `json:"paid_at"`
}

// OrderPaymentFailedEvent records a failed gateway attempt; the order itself is untouched.
type OrderPaymentFailedEvent struct {
	OrderID                uuid.UUID `json:"order_id"`
	ExternalPaymentOrderID string    `json:"external_payment_order_id"`
	ExternalPaymentID      string    `json:"external_payment_id,omitempty"`
	ErrorCode              string    `json:"error_code,omitempty"`
	ErrorDescription       string    `json:"error_description,omitempty"`
}

// OrderStatusChangedEvent records one fulfillment transition.
type OrderStatusChangedEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	From            enums.OrderStatus `json:"from"`
	To              enums.OrderStatus `json:"to"`
	ActorRole       enums.Role        `json:"actor_role"`
	ActorID         *uuid.UUID        `json:"actor_id,omitempty"`
	DeliveryAgentID *uuid.UUID        `json:"delivery_agent_id,omitempty"`
	Reason          string            `json:"reason,omitempty"`
}

// ProductCreatedEvent is emitted when a seller lists a product.
type ProductCreatedEvent struct {
	ProductID       uuid.UUID `json:"product_id"`
	SellerID        uuid.UUID `json:"seller_id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Category        string    `json:"category"`
	PricePerKgPaise int64     `json:"price_per_kg_paise"`
}
