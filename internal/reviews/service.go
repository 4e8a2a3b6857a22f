package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

const (
	minRating          = 1
	maxRating          = 5
	maxReviewLength    = 2000
	defaultReviewLimit = 50
)

// ReviewDTO is the public shape of a review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddReviewInput is the payload for a new review. Rating is clamped into 1..5.
type AddReviewInput struct {
	Name   string
	Rating float64
	Review string
}

// Service adds and lists product reviews.
type Service interface {
	Add(ctx context.Context, slug string, userID *uuid.UUID, input AddReviewInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
}

type productLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type service struct {
	repo     *Repository
	products productLookup
}

func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, slug string, userID *uuid.UUID, input AddReviewInput) (*ReviewDTO, error) {
	name := strings.TrimSpace(input.Name)
	text := strings.TrimSpace(input.Review)
	if name == "" || text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and review are required")
	}
	if len(text) > maxReviewLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "review must be at most %d characters", maxReviewLength)
	}

	product, err := s.products.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	review := &models.Review{
		ProductID: product.ID,
		UserID:    userID,
		Name:      name,
		Rating:    ClampRating(input.Rating),
		Review:    text,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	dto := fromModel(*review)
	return &dto, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByProduct(ctx, productID, defaultReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// ClampRating rounds to the nearest star and bounds the result to 1..5; NaN becomes 1.
func ClampRating(v float64) int {
	if math.IsNaN(v) {
		return minRating
	}
	r := int(math.Round(v))
	if r < minRating {
		return minRating
	}
	if r > maxRating {
		return maxRating
	}
	return r
}

func fromModel(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		Name:      r.Name,
		Rating:    r.Rating,
		Review:    r.Review,
		CreatedAt: r.CreatedAt,
	}
}
