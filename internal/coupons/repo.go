package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	return r.DB(ctx).Create(coupon).Error
}

// ListActive returns active coupons whose expiry is not before now, soonest expiry first.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.DB(ctx).
		Where("is_active = ? AND expiry_date >= ?", true, now).
		Order("expiry_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListAll(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.DB(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Patch(ctx, &models.Coupon{}, map[string]any{"is_active": false}, "id = ?", id)
}
