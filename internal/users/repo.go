package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetBlocked flips is_blocked on a customer account. Admin rows are never touched.
func (r *Repository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (bool, error) {
	return r.Patch(ctx, &models.User{}, map[string]any{"is_blocked": blocked}, "id = ? AND role = ?", id, enums.RoleCustomer)
}

// ListCustomers returns customer accounts, newest first.
func (r *Repository) ListCustomers(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.DB(ctx).
		Where("role = ?", enums.RoleCustomer).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateProfile writes the given profile columns for a customer.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	return r.Patch(ctx, &models.User{}, fields, "id = ? AND role = ?", id, enums.RoleCustomer)
}

// ListAddresses returns the customer's saved addresses in the order they were added.
func (r *Repository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	var rows []models.CustomerAddress
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) AddAddress(ctx context.Context, address *models.CustomerAddress) error {
	return r.DB(ctx).Create(address).Error
}

// DeleteAddress removes a saved address only when userID owns it.
func (r *Repository) DeleteAddress(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CustomerAddress{})
	return res.RowsAffected > 0, res.Error
}
