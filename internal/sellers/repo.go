package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Repository persists seller accounts.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, seller *models.Seller) error {
	if seller.ID == uuid.Nil {
		seller.ID = uuid.New()
	}
	return r.DB(ctx).Create(seller).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).Where("email = ?", email).First(&seller).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// FindByIDs loads sellers keyed by id; missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Seller, error) {
	out := make(map[uuid.UUID]models.Seller, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Seller
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List returns sellers newest first, optionally narrowed to one status.
func (r *Repository) List(ctx context.Context, status *enums.SellerStatus) ([]models.Seller, error) {
	q := r.DB(ctx).Model(&models.Seller{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.Seller
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// Update applies column updates and reports whether the seller exists.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	return r.Patch(ctx, &models.Seller{}, updates, "id = ?", id)
}
