package agents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
)

// Repository persists delivery agent accounts.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, agent *models.DeliveryAgent) error {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	return r.DB(ctx).Create(agent).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.DB(ctx).First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *Repository) FindByMobile(ctx context.Context, mobile string) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.DB(ctx).Where("mobile = ?", mobile).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.DB(ctx).Where("email = ?", email).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

// List returns agents newest first; approved narrows the result when set.
func (r *Repository) List(ctx context.Context, approved *bool) ([]models.DeliveryAgent, error) {
	q := r.DB(ctx).Model(&models.DeliveryAgent{})
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	var rows []models.DeliveryAgent
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Patch(ctx, &models.DeliveryAgent{}, map[string]any{"is_approved": true}, "id = ?", id)
}
