package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
)

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	Category    string
	InStockOnly bool
	Query       string
	Limit       int
	Offset      int
}

// Repository wires product persistence.
type Repository struct {
	repo.Base
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db), db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// FindByID loads the product with its seller.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads an approved product by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Seller").First(&product, "slug = ? AND is_approved = ?", slug, true).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySellerAndID loads a product only when sellerID owns it.
func (r *Repository) FindBySellerAndID(ctx context.Context, sellerID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Seller").Save(product).Error
}

// Delete removes a seller-owned product and reports whether a row matched.
func (r *Repository) Delete(ctx context.Context, sellerID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// SlugsWithBase lists slugs equal to base or shaped like base-N.
func (r *Repository) SlugsWithBase(ctx context.Context, base string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ? OR slug LIKE ?", base, escapeLike(base)+"-%").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *Repository) ListPublic(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Seller").Where("is_approved = ?", true)
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.InStockOnly {
		query = query.Where("in_stock = ?", true)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []models.Product
	err := query.Order("created_at DESC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListVendorsByName returns every in-stock listing sharing name, cheapest first.
func (r *Repository) ListVendorsByName(ctx context.Context, name string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Where("in_stock = ? AND is_approved = ?", true, true).
		Order("price_per_kg_paise ASC").
		Find(&rows).Error
	return rows, err
}

// ListStorefront returns a seller's approved, in-stock listings, newest first.
func (r *Repository) ListStorefront(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND in_stock = ? AND is_approved = ?", sellerID, true, true).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

type ratingRow struct {
	Average *float64
	Count   int64
}

// SellerRating averages review ratings across a seller's approved products.
func (r *Repository) SellerRating(ctx context.Context, sellerID uuid.UUID) (*float64, int64, error) {
	var row ratingRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("AVG(reviews.rating) AS average, COUNT(reviews.id) AS count").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("products.seller_id = ? AND products.is_approved = ?", sellerID, true).
		Scan(&row).Error
	return row.Average, row.Count, err
}

// ListPending returns products awaiting moderation, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("is_approved = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// Approve marks a product as approved and reports whether it exists.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Patch(ctx, &models.Product{}, map[string]any{"is_approved": true}, "id = ?", id)
}

// DeletePending removes a product that has not been approved yet.
func (r *Repository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND is_approved = ?", id, false).
		Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
