package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

const (
	usersEmailConstraint = "users_email_key"
	defaultCountry       = "India"
)

// Service covers customer self-service (profile, saved addresses) and admin moderation.
type Service interface {
	ListCustomers(ctx context.Context) ([]UserDTO, error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error

	Profile(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	AddAddress(ctx context.Context, userID uuid.UUID, input AddAddressInput) (*AddressDTO, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCustomers(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	found, err := s.repo.SetBlocked(ctx, id, blocked)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// UpdateProfile applies non-blank fields; the email is stored lowercased.
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" && name != user.Name {
		fields["name"] = name
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != user.Email {
		if !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		fields["email"] = email
		user.Email = email
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" && (user.Phone == nil || *user.Phone != phone) {
		fields["phone"] = phone
		user.Phone = &phone
	}
	if len(fields) == 0 {
		return FromModel(user), nil
	}

	if _, err := s.repo.UpdateProfile(ctx, id, fields); err != nil {
		if db.IsUniqueViolation(err, usersEmailConstraint) || db.IsUniqueViolation(err, "users.email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, addressFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddAddressInput) (*AddressDTO, error) {
	address := &models.CustomerAddress{
		ID:      uuid.New(),
		UserID:  userID,
		Label:   optional(input.Label),
		Name:    optional(input.Name),
		Phone:   optional(input.Phone),
		Street:  strings.TrimSpace(input.Street),
		City:    strings.TrimSpace(input.City),
		State:   strings.TrimSpace(input.State),
		Pincode: strings.TrimSpace(input.Pincode),
		Country: strings.TrimSpace(input.Country),
	}
	if address.Street == "" || address.City == "" || address.State == "" || address.Pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street, city, state and pincode are required")
	}
	if address.Country == "" {
		address.Country = defaultCountry
	}
	if _, err := s.loadCustomer(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.repo.AddAddress(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add address")
	}
	dto := addressFromModel(address)
	return &dto, nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	deleted, err := s.repo.DeleteAddress(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) loadCustomer(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.Role != enums.RoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
