package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// SellerDTO is the public and admin view of a seller account.
type SellerDTO struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	ShopName     string             `json:"shopName"`
	Address      string             `json:"address"`
	City         string             `json:"city"`
	State        string             `json:"state"`
	BusinessType enums.BusinessType `json:"businessType"`
	IDProofURL   *string            `json:"idProofUrl,omitempty"`
	ShopPhotoURL *string            `json:"shopPhotoUrl,omitempty"`
	Status       enums.SellerStatus `json:"status"`
	IsBlocked    bool               `json:"isBlocked"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func FromModel(s models.Seller) SellerDTO {
	return SellerDTO{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		Phone:        s.Phone,
		ShopName:     s.ShopName,
		Address:      s.Address,
		City:         s.City,
		State:        s.State,
		BusinessType: s.BusinessType,
		IDProofURL:   s.IDProofURL,
		ShopPhotoURL: s.ShopPhotoURL,
		Status:       s.Status,
		IsBlocked:    s.IsBlocked,
		CreatedAt:    s.CreatedAt,
	}
}
