package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// PricedProduct is the catalog's view of a line: authoritative price and names.
type PricedProduct struct {
	VendorID       uuid.UUID
	VendorName     string
	ProductID      uuid.UUID
	Name           string
	UnitPricePaise int64
}

// PricingResolver re-reads price and names from the catalog so client values are never trusted.
type PricingResolver struct {
	products productLoader
}

func NewPricingResolver(products productLoader) (*PricingResolver, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &PricingResolver{products: products}, nil
}

// Resolve loads productID and checks vendorID owns it, it passed moderation and it is in stock.
func (r *PricingResolver) Resolve(ctx context.Context, vendorID, productID uuid.UUID) (PricedProduct, error) {
	product, err := r.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PricedProduct{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": productID})
		}
		return PricedProduct{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if vendorID != uuid.Nil && product.SellerID != vendorID {
		return PricedProduct{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not sold by this vendor").
			WithDetails(map[string]any{"productId": productID, "vendorId": vendorID})
	}
	if !product.IsApproved {
		return PricedProduct{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"productId": productID})
	}
	if !product.InStock {
		return PricedProduct{}, pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
			WithDetails(map[string]any{"productId": productID})
	}
	if product.Seller != nil && !product.Seller.CanSell() {
		return PricedProduct{}, pkgerrors.New(pkgerrors.CodeValidation, "vendor is not accepting orders").
			WithDetails(map[string]any{"vendorId": product.SellerID})
	}

	vendorName := ""
	if product.Seller != nil {
		vendorName = product.Seller.ShopName
	}
	return PricedProduct{
		VendorID:       product.SellerID,
		VendorName:     vendorName,
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPricePaise: product.PricePerKgPaise,
	}, nil
}

// Reprice returns c with every line re-resolved; the first unresolvable line fails the whole cart.
func (r *PricingResolver) Reprice(ctx context.Context, c Cart) (Cart, error) {
	out := Cart{Items: make([]Item, 0, len(c.Items))}
	for _, item := range c.Items {
		priced, err := r.Resolve(ctx, item.VendorID, item.ProductID)
		if err != nil {
			return Cart{}, err
		}
		line := Item{
			VendorID:       priced.VendorID,
			VendorName:     priced.VendorName,
			ProductID:      priced.ProductID,
			Name:           priced.Name,
			UnitPricePaise: priced.UnitPricePaise,
			Qty:            NormalizeQty(item.Qty),
		}
		line.recompute()
		out.Items = append(out.Items, line)
	}
	return out, nil
}
