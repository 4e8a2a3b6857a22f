package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a seller's listing priced per kilogram. It stays out of the public
// catalog until an admin approves it.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	Slug            string          `gorm:"column:slug;not null;unique"`
	Description     *string         `gorm:"column:description"`
	Category        string          `gorm:"column:category;not null"`
	PricePerKgPaise int64           `gorm:"column:price_per_kg_paise;not null"`
	AvailableQty    decimal.Decimal `gorm:"column:available_qty;type:numeric(12,3);not null;default:0"`
	ImageURL        *string         `gorm:"column:image_url"`
	InStock         bool            `gorm:"column:in_stock;not null"`
	IsApproved      bool            `gorm:"column:is_approved;not null;default:false"`
	Seller          *Seller         `gorm:"foreignKey:SellerID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
