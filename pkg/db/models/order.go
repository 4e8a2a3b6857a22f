package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

// Order is a customer purchase. Line items are written once at checkout.
type Order struct {
	ID                     uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                 *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	ContactName            string                `gorm:"column:contact_name;not null"`
	ContactPhone           string                `gorm:"column:contact_phone;not null"`
	ContactEmail           *string               `gorm:"column:contact_email"`
	ShippingAddress        types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	TotalPaise             int64                 `gorm:"column:total_paise;not null"`
	PaymentStatus          enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'Unpaid'"`
	PaymentMethod          enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	ExternalPaymentOrderID *string               `gorm:"column:external_payment_order_id;uniqueIndex"`
	ExternalPaymentID      *string               `gorm:"column:external_payment_id"`
	Status                 enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'Pending'"`
	DeliveryAgentID        *uuid.UUID            `gorm:"column:delivery_agent_id;type:uuid"`
	PaidAt                 *time.Time            `gorm:"column:paid_at"`
	CancelledAt            *time.Time            `gorm:"column:cancelled_at"`
	DeliveredAt            *time.Time            `gorm:"column:delivered_at"`
	LineItems              []OrderLineItem       `gorm:"foreignKey:OrderID"`
	CreatedAt              time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// LineItemTotal sums the stored subtotals.
func (o Order) LineItemTotal() int64 {
	var total int64
	for _, item := range o.LineItems {
		total += item.SubtotalPaise
	}
	return total
}

// VendorIDs returns the distinct sellers with line items on the order.
func (o Order) VendorIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.LineItems))
	ids := make([]uuid.UUID, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	return ids
}
