package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

// Service exposes the per-session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty any) (Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (Cart, error)
	ReplaceFromClientSnapshot(ctx context.Context, sessionID string, entries []SnapshotEntry) (Cart, []Warning, error)
	Clear(ctx context.Context, sessionID string) error
}

// AddItemInput is the add-to-cart payload. Names and price are advisory; the catalog wins.
type AddItemInput struct {
	VendorID    uuid.UUID
	ProductID   uuid.UUID
	VendorName  string
	ProductName string
	Qty         any
}

// SnapshotEntry is one line of a client-held cart.
type SnapshotEntry struct {
	VendorID    string `json:"vendorId"`
	VendorName  string `json:"vendorName"`
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	ProductName string `json:"productName"`
	Price       any    `json:"price"`
	Qty         any    `json:"qty"`
}

// Warning reports a snapshot line that was dropped.
type Warning struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type pricer interface {
	Resolve(ctx context.Context, vendorID, productID uuid.UUID) (PricedProduct, error)
}

type service struct {
	store   cartStore
	pricing pricer
}

// NewService builds a cart service backed by the provided store and catalog pricing.
func NewService(store cartStore, pricing pricer) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("pricing resolver required")
	}
	return &service{store: store, pricing: pricing}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return Cart{}, err
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return Cart{}, err
	}
	if input.ProductID == uuid.Nil {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if input.VendorID == uuid.Nil {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}

	priced, err := s.pricing.Resolve(ctx, input.VendorID, input.ProductID)
	if err != nil {
		return Cart{}, err
	}
	qty := NormalizeQty(input.Qty)

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	merged := false
	for i := range c.Items {
		item := &c.Items[i]
		if item.VendorID == priced.VendorID && item.ProductID == priced.ProductID {
			item.Qty += qty
			item.UnitPricePaise = priced.UnitPricePaise
			item.Name = priced.Name
			item.VendorName = priced.VendorName
			item.recompute()
			merged = true
			break
		}
	}
	if !merged {
		item := Item{
			VendorID:       priced.VendorID,
			VendorName:     priced.VendorName,
			ProductID:      priced.ProductID,
			Name:           priced.Name,
			UnitPricePaise: priced.UnitPricePaise,
			Qty:            qty,
		}
		item.recompute()
		c.Items = append(c.Items, item)
	}

	if err := s.save(ctx, sessionID, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// UpdateQuantity sets the qty of the first line for productID; unknown products are ignored.
func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty any) (Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Qty = NormalizeQty(qty)
			c.Items[i].recompute()
			if err := s.save(ctx, sessionID, c); err != nil {
				return Cart{}, err
			}
			break
		}
	}
	return c, nil
}

// RemoveItem drops every line for productID regardless of vendor.
func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	if err := s.save(ctx, sessionID, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (s *service) ReplaceFromClientSnapshot(ctx context.Context, sessionID string, entries []SnapshotEntry) (Cart, []Warning, error) {
	if err := requireSession(sessionID); err != nil {
		return Cart{}, nil, err
	}

	var warnings []Warning
	c := Cart{Items: make([]Item, 0, len(entries))}
	for _, entry := range entries {
		productID, err := uuid.Parse(entry.ProductID)
		if err != nil {
			warnings = append(warnings, Warning{ProductID: entry.ProductID, Reason: "invalid product id"})
			continue
		}
		vendorID, err := uuid.Parse(entry.VendorID)
		if err != nil {
			warnings = append(warnings, Warning{ProductID: entry.ProductID, Reason: "invalid vendor id"})
			continue
		}
		priced, err := s.pricing.Resolve(ctx, vendorID, productID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
				warnings = append(warnings, Warning{ProductID: entry.ProductID, Reason: typed.Message()})
				continue
			}
			return Cart{}, nil, err
		}
		item := Item{
			VendorID:       priced.VendorID,
			VendorName:     priced.VendorName,
			ProductID:      priced.ProductID,
			Name:           priced.Name,
			UnitPricePaise: priced.UnitPricePaise,
			Qty:            NormalizeQty(entry.Qty),
		}
		item.recompute()
		c.Items = append(c.Items, item)
	}

	if err := s.save(ctx, sessionID, c); err != nil {
		return Cart{}, nil, err
	}
	return c, warnings, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) save(ctx context.Context, sessionID string, c Cart) error {
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func requireSession(sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session required")
	}
	return nil
}
