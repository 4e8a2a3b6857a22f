package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

const codeConstraint = "coupons_code_key"

var maxPercentage = decimal.NewFromInt(100)

// CouponDTO is the public shape of a coupon.
type CouponDTO struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Description   string             `json:"description"`
	DiscountType  enums.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal    `json:"discountValue"`
	ExpiryDate    time.Time          `json:"expiryDate"`
	IsActive      bool               `json:"isActive"`
}

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code          string
	Description   string
	DiscountType  string
	DiscountValue decimal.Decimal
	ExpiryDate    time.Time
}

// Service lists, creates and deactivates coupons.
type Service interface {
	ListActive(ctx context.Context) ([]CouponDTO, error)
	ListAll(ctx context.Context) ([]CouponDTO, error)
	Create(ctx context.Context, input CreateInput) (*CouponDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) ListActive(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.ListActive(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return fromModels(rows), nil
}

func (s *service) ListAll(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CouponDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	discountType, err := enums.ParseDiscountType(strings.ToLower(strings.TrimSpace(input.DiscountType)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(maxPercentage) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.ExpiryDate.IsZero() || input.ExpiryDate.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date must be in the future")
	}

	coupon := &models.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: input.DiscountValue.Round(2),
		ExpiryDate:    input.ExpiryDate.UTC(),
		IsActive:      true,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		coupon.Description = &desc
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, codeConstraint) || db.IsUniqueViolation(err, "coupons.code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	dto := fromModel(*coupon)
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate coupon")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func fromModel(c models.Coupon) CouponDTO {
	dto := CouponDTO{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		ExpiryDate:    c.ExpiryDate,
		IsActive:      c.IsActive,
	}
	if c.Description != nil {
		dto.Description = *c.Description
	}
	return dto
}

func fromModels(rows []models.Coupon) []CouponDTO {
	out := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out
}
