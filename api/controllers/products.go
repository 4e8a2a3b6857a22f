package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	productsvc "github.com/sabjimart/sabji-backend/internal/products"
	"github.com/sabjimart/sabji-backend/internal/reviews"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const (
	defaultProductPageSize = 24
	maxProductPageSize     = 100
)

// ProductDetail is the public product page: the listing, other vendors selling it and reviews.
type ProductDetail struct {
	Product productsvc.ProductDTO   `json:"product"`
	Vendors []productsvc.ProductDTO `json:"vendors"`
	Reviews []reviews.ReviewDTO     `json:"reviews"`
}

// PublicProducts lists the catalog.
func PublicProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultProductPageSize, 1, maxProductPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		filter := productsvc.ListFilter{
			Category:    validators.SanitizeString(query.Get("category"), 64),
			Query:       validators.SanitizeString(query.Get("q"), 100),
			InStockOnly: strings.EqualFold(query.Get("in_stock"), "true"),
			Limit:       limit,
			Offset:      offset,
		}

		items, err := svc.ListPublic(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// PublicProductDetail resolves a product by slug together with its vendors and reviews.
func PublicProductDetail(svc productsvc.Service, reviewSvc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || reviewSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendors, err := svc.ListVendors(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productReviews, err := reviewSvc.ListForProduct(r.Context(), product.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ProductDetail{
			Product: *product,
			Vendors: vendors,
			Reviews: productReviews,
		})
	}
}

// PublicProductVendors lists every seller offering the product behind slug.
func PublicProductVendors(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendors, err := svc.ListVendors(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors)
	}
}

// PublicVendorStorefront returns a seller's public profile with its in-stock listings.
func PublicVendorStorefront(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		sellerID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		front, err := svc.Storefront(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, front)
	}
}

type addReviewRequest struct {
	Name   string  `json:"name" validate:"required,max=80"`
	Rating float64 `json:"rating"`
	Review string  `json:"review" validate:"required,max=2000"`
}

// ProductAddReview accepts a review for a product. A signed-in customer is recorded as the author.
func ProductAddReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		var body addReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var userID *uuid.UUID
		if principal, ok := middleware.PrincipalFromContext(r.Context()); ok && principal.Role == enums.RoleCustomer {
			id := principal.ID
			userID = &id
		}

		review, err := svc.Add(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")), userID, reviews.AddReviewInput{
			Name:   validators.SanitizeString(body.Name, 80),
			Rating: body.Rating,
			Review: strings.TrimSpace(body.Review),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// SellerProducts lists the authenticated seller's catalog.
func SellerProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := principalID(r, enums.RoleSeller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListSellerProducts(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type createProductRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	Slug            string          `json:"slug,omitempty" validate:"omitempty,max=140"`
	Description     *string         `json:"description,omitempty"`
	Category        string          `json:"category" validate:"required,max=64"`
	PricePerKgPaise int64           `json:"price_per_kg_paise" validate:"min=0"`
	AvailableQty    decimal.Decimal `json:"available_qty"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (r createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	if r.AvailableQty.IsNegative() {
		return productsvc.CreateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "available_qty must not be negative")
	}
	return productsvc.CreateProductInput{
		Name:            strings.TrimSpace(r.Name),
		Slug:            strings.TrimSpace(r.Slug),
		Description:     r.Description,
		Category:        strings.TrimSpace(r.Category),
		PricePerKgPaise: r.PricePerKgPaise,
		AvailableQty:    r.AvailableQty,
		ImageURL:        r.ImageURL,
	}, nil
}

// SellerCreateProduct adds a product to the seller's catalog.
func SellerCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := principalID(r, enums.RoleSeller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Slug            *string          `json:"slug,omitempty" validate:"omitempty,max=140"`
	Description     *string          `json:"description,omitempty"`
	Category        *string          `json:"category,omitempty" validate:"omitempty,max=64"`
	PricePerKgPaise *int64           `json:"price_per_kg_paise,omitempty" validate:"omitempty,min=0"`
	AvailableQty    *decimal.Decimal `json:"available_qty,omitempty"`
	ImageURL        *string          `json:"image_url,omitempty" validate:"omitempty,url"`
}

// SellerUpdateProduct patches one of the seller's products.
func SellerUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := principalID(r, enums.RoleSeller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.AvailableQty != nil && payload.AvailableQty.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "available_qty must not be negative"))
			return
		}

		product, err := svc.UpdateProduct(r.Context(), sellerID, productID, productsvc.UpdateProductInput{
			Name:            payload.Name,
			Slug:            payload.Slug,
			Description:     payload.Description,
			Category:        payload.Category,
			PricePerKgPaise: payload.PricePerKgPaise,
			AvailableQty:    payload.AvailableQty,
			ImageURL:        payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// SellerDeleteProduct removes one of the seller's products.
func SellerDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := principalID(r, enums.RoleSeller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), sellerID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
