package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAgent moves assigned orders from seller to customer.
type DeliveryAgent struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Mobile       string    `gorm:"column:mobile;not null;uniqueIndex"`
	Email        *string   `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsApproved   bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
