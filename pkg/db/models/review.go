package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	Rating    int        `gorm:"column:rating;not null"`
	Review    string     `gorm:"column:review;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
