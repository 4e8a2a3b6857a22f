package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// VendorSummary is the seller data shown next to a listing.
type VendorSummary struct {
	SellerID uuid.UUID `json:"seller_id"`
	ShopName string    `json:"shop_name"`
	City     string    `json:"city"`
}

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID              uuid.UUID       `json:"id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     *string         `json:"description,omitempty"`
	Category        string          `json:"category"`
	PricePerKgPaise int64           `json:"price_per_kg_paise"`
	AvailableQty    decimal.Decimal `json:"available_qty"`
	ImageURL        *string         `json:"image_url,omitempty"`
	InStock         bool            `json:"in_stock"`
	IsApproved      bool            `json:"is_approved"`
	Vendor          *VendorSummary  `json:"vendor,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewProductDTO maps the model, including its seller when preloaded.
func NewProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:              p.ID,
		SellerID:        p.SellerID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Category:        p.Category,
		PricePerKgPaise: p.PricePerKgPaise,
		AvailableQty:    p.AvailableQty,
		ImageURL:        p.ImageURL,
		InStock:         p.InStock,
		IsApproved:      p.IsApproved,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Seller != nil {
		dto.Vendor = &VendorSummary{
			SellerID: p.Seller.ID,
			ShopName: p.Seller.ShopName,
			City:     p.Seller.City,
		}
	}
	return dto
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewProductDTO(row))
	}
	return out
}

// StorefrontVendor is the public profile of a seller.
type StorefrontVendor struct {
	SellerID     uuid.UUID          `json:"seller_id"`
	ShopName     string             `json:"shop_name"`
	OwnerName    string             `json:"owner_name"`
	City         string             `json:"city"`
	State        string             `json:"state"`
	BusinessType enums.BusinessType `json:"business_type"`
	ShopPhotoURL *string            `json:"shop_photo_url,omitempty"`
}

// Storefront is a seller's public page: profile, review rating and in-stock listings.
type Storefront struct {
	Vendor        StorefrontVendor `json:"vendor"`
	AverageRating *float64         `json:"average_rating"`
	ReviewCount   int64            `json:"review_count"`
	Products      []ProductDTO     `json:"products"`
}
