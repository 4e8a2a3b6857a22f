package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
)

// Service exposes catalog reads and seller product management.
type Service interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	ListPublic(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListVendors(ctx context.Context, slug string) ([]ProductDTO, error)
	Storefront(ctx context.Context, sellerID uuid.UUID) (*Storefront, error)

	ListPending(ctx context.Context) ([]ProductDTO, error)
	ApproveProduct(ctx context.Context, productID uuid.UUID) error
	// RejectProduct deletes a product that was never approved.
	RejectProduct(ctx context.Context, productID uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name            string
	Slug            string
	Description     *string
	Category        string
	PricePerKgPaise int64
	AvailableQty    decimal.Decimal
	ImageURL        *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name            *string
	Slug            *string
	Description     *string
	Category        *string
	PricePerKgPaise *int64
	AvailableQty    *decimal.Decimal
	ImageURL        *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sellerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	sellers sellerLoader
	outbox  outboxPublisher
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, sellers sellerLoader, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, sellers: sellers, outbox: publisher}, nil
}

func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := s.ensureSellerCanList(ctx, sellerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.PricePerKgPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.AvailableQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity cannot be negative")
	}

	base := Slugify(input.Slug)
	if base == "" {
		base = Slugify(name)
	}
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits")
	}

	product := &models.Product{
		ID:              uuid.New(),
		SellerID:        sellerID,
		Name:            name,
		Description:     trimPtr(input.Description),
		Category:        category,
		PricePerKgPaise: input.PricePerKgPaise,
		AvailableQty:    input.AvailableQty,
		ImageURL:        trimPtr(input.ImageURL),
		InStock:         input.AvailableQty.IsPositive(),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := insertWithUniqueSlug(ctx, tx, s.repo.WithTx(tx), product, base); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductCreated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: &sellerID, Role: enums.RoleSeller},
			Data: payloads.ProductCreatedEvent{
				ProductID:       product.ID,
				SellerID:        sellerID,
				Name:            product.Name,
				Slug:            product.Slug,
				Category:        product.Category,
				PricePerKgPaise: product.PricePerKgPaise,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	dto := NewProductDTO(*product)
	return &dto, nil
}

// insertWithUniqueSlug tries base, base-1, base-2 ... under a savepoint so a slug collision
// does not abort the surrounding transaction.
func insertWithUniqueSlug(ctx context.Context, tx *gorm.DB, repo *Repository, product *models.Product, base string) error {
	existing, err := repo.SlugsWithBase(ctx, base)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load existing slugs")
	}
	suffix := nextSlugSuffix(base, existing)

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		product.Slug = slugCandidate(base, suffix+attempt)
		if err := tx.SavePoint("product_slug").Error; err != nil {
			return err
		}
		err := repo.Create(ctx, product)
		if err == nil {
			return nil
		}
		if !isSlugConflict(err) {
			return err
		}
		if rbErr := tx.RollbackTo("product_slug").Error; rbErr != nil {
			return rbErr
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "could not assign a unique slug for %q", base)
}

// isSlugConflict matches the Postgres constraint name; sqlite reports the column instead.
func isSlugConflict(err error) bool {
	return db.IsUniqueViolation(err, slugConstraint) || db.IsUniqueViolation(err, "products.slug")
}

func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindBySellerAndID(ctx, sellerID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		if err := applyUpdate(product, input); err != nil {
			return err
		}

		if input.Slug != nil {
			base := Slugify(*input.Slug)
			if base == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
			}
			product.Slug = base
		}

		if err := repo.Update(ctx, product); err != nil {
			if isSlugConflict(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*updated)
	return &dto, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = trimPtr(input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		product.Category = category
	}
	if input.PricePerKgPaise != nil {
		if *input.PricePerKgPaise <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PricePerKgPaise = *input.PricePerKgPaise
	}
	if input.AvailableQty != nil {
		if input.AvailableQty.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "available quantity cannot be negative")
		}
		product.AvailableQty = *input.AvailableQty
	}
	if input.ImageURL != nil {
		product.ImageURL = trimPtr(input.ImageURL)
	}
	product.InStock = product.AvailableQty.IsPositive()
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, sellerID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) ListPublic(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.ListPublic(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

// ListVendors returns every seller listing the same product name as slug.
func (s *service) ListVendors(ctx context.Context, slug string) ([]ProductDTO, error) {
	product, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListVendorsByName(ctx, product.Name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vendors")
	}
	return newProductDTOs(rows), nil
}

// Storefront hides sellers that cannot sell, so blocked or pending shops read as missing.
func (s *service) Storefront(ctx context.Context, sellerID uuid.UUID) (*Storefront, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	if seller == nil || !seller.CanSell() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}

	rows, err := s.repo.ListStorefront(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vendor products")
	}
	average, count, err := s.repo.SellerRating(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor rating")
	}

	return &Storefront{
		Vendor: StorefrontVendor{
			SellerID:     seller.ID,
			ShopName:     seller.ShopName,
			OwnerName:    seller.Name,
			City:         seller.City,
			State:        seller.State,
			BusinessType: seller.BusinessType,
			ShopPhotoURL: seller.ShopPhotoURL,
		},
		AverageRating: average,
		ReviewCount:   count,
		Products:      newProductDTOs(rows),
	}, nil
}

func (s *service) ListPending(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) ApproveProduct(ctx context.Context, productID uuid.UUID) error {
	found, err := s.repo.Approve(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) RejectProduct(ctx context.Context, productID uuid.UUID) error {
	deleted, err := s.repo.DeletePending(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending product not found")
	}
	return nil
}

func (s *service) ensureSellerCanList(ctx context.Context, sellerID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if !seller.CanSell() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller is not approved")
	}
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
