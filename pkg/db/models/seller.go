package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Seller is a vendor account that lists products and fulfills line items.
type Seller struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Email        string             `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone        string             `gorm:"column:phone;not null"`
	ShopName     string             `gorm:"column:shop_name;not null"`
	Address      string             `gorm:"column:address;not null"`
	City         string             `gorm:"column:city;not null"`
	State        string             `gorm:"column:state;not null"`
	BusinessType enums.BusinessType `gorm:"column:business_type;type:business_type;not null"`
	IDProofURL   *string            `gorm:"column:id_proof_url"`
	ShopPhotoURL *string            `gorm:"column:shop_photo_url"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Status       enums.SellerStatus `gorm:"column:status;type:seller_status;not null;default:'Pending'"`
	IsBlocked    bool               `gorm:"column:is_blocked;not null;default:false"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CanSell reports whether the seller may log in and receive orders.
func (s Seller) CanSell() bool {
	return s.Status == enums.SellerStatusApproved && !s.IsBlocked
}
