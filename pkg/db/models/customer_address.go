package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerAddress is a delivery address a customer saved for reuse at checkout.
type CustomerAddress struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Label     *string   `gorm:"column:label"`
	Name      *string   `gorm:"column:name"`
	Phone     *string   `gorm:"column:phone"`
	Street    string    `gorm:"column:street;not null"`
	City      string    `gorm:"column:city;not null"`
	State     string    `gorm:"column:state;not null"`
	Pincode   string    `gorm:"column:pincode;not null"`
	Country   string    `gorm:"column:country;not null;default:'India'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerAddress) TableName() string { return "customer_addresses" }
