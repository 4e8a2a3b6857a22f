package auth

import (
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// LoginRequest carries the credentials for any role. Delivery agents sign in with their
// mobile number; every other role uses email.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty,min=10,max=15"`
	Password string `json:"password" validate:"required"`
}

// AccountSummary names the authenticated principal.
type AccountSummary struct {
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
	Role enums.Role `json:"role"`
}

// LoginResponse contains the token pair and the principal produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Account      AccountSummary `json:"account"`
}

// TokenPair is returned by a refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CustomerRegisterRequest is the customer sign-up payload.
type CustomerRegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// SellerRegisterRequest is the seller onboarding payload. Document URLs point at files
// uploaded elsewhere.
type SellerRegisterRequest struct {
	Name         string  `json:"name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
	ShopName     string  `json:"shopName" validate:"required"`
	Address      string  `json:"address" validate:"required"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required"`
	BusinessType string  `json:"businessType" validate:"required"`
	IDProofURL   *string `json:"idProofUrl,omitempty" validate:"omitempty,url"`
	ShopPhotoURL *string `json:"shopPhotoUrl,omitempty" validate:"omitempty,url"`
}

// DeliverySignupRequest is the delivery agent sign-up payload.
type DeliverySignupRequest struct {
	Name     string  `json:"name" validate:"required"`
	Mobile   string  `json:"mobile" validate:"required,min=10,max=15"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required"`
}
