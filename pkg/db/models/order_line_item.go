package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is the priced snapshot of one cart entry at checkout.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	SubtotalPaise  int64     `gorm:"column:subtotal_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
