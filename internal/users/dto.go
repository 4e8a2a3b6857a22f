package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	Role        enums.Role `json:"role"`
	IsBlocked   bool       `json:"isBlocked"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	Role         enums.Role
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsBlocked:   u.IsBlocked,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		ID:           uuid.New(),
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		Role:         role,
	}
}

// AddressDTO is a saved delivery address.
type AddressDTO struct {
	ID        uuid.UUID `json:"id"`
	Label     *string   `json:"label,omitempty"`
	Name      *string   `json:"name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
}

func addressFromModel(a *models.CustomerAddress) AddressDTO {
	return AddressDTO{
		ID:        a.ID,
		Label:     a.Label,
		Name:      a.Name,
		Phone:     a.Phone,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		Country:   a.Country,
		CreatedAt: a.CreatedAt,
	}
}

// UpdateProfileInput carries profile edits. Blank fields keep the stored value.
type UpdateProfileInput struct {
	Name  string
	Email string
	Phone string
}

// AddAddressInput carries a new saved address.
type AddAddressInput struct {
	Label   string
	Name    string
	Phone   string
	Street  string
	City    string
	State   string
	Pincode string
	Country string
}
