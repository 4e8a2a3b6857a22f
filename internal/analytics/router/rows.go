package router

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	analyticswriter "github.com/sabjimart/sabji-backend/internal/analytics/writer"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
)

func orderCreatedRow(env types.Envelope, e *payloads.OrderCreatedEvent) (types.MarketplaceEventRow, error) {
	items, err := analyticswriter.EncodeJSON(e.LineItems)
	if err != nil {
		return types.MarketplaceEventRow{}, fmt.Errorf("encode line items: %w", err)
	}
	row := baseRow(env)
	row.OrderID = id(e.OrderID)
	if e.UserID != nil {
		row.UserID = id(*e.UserID)
	}
	row.SellerIDs = make([]string, len(e.VendorIDs))
	for i, v := range e.VendorIDs {
		row.SellerIDs[i] = v.String()
	}
	row.PaymentMethod = text(string(e.PaymentMethod))
	row.AmountPaise = &e.TotalPaise
	row.Status = text(string(enums.OrderStatusPending))
	row.City = text(e.City)
	row.Pincode = text(e.Pincode)
	row.Items = items
	return row, nil
}

// orderPaidRow is stamped with the capture time rather than the publish time.
func orderPaidRow(env types.Envelope, e *payloads.OrderPaidEvent) (types.MarketplaceEventRow, error) {
	row := baseRow(env)
	if !e.PaidAt.IsZero() {
		row.OccurredAt = e.PaidAt.UTC()
	}
	row.OrderID = id(e.OrderID)
	row.PaymentMethod = text(string(enums.PaymentMethodRazorpay))
	row.AmountPaise = &e.AmountPaise
	return row, nil
}

func paymentFailedRow(env types.Envelope, e *payloads.OrderPaymentFailedEvent) (types.MarketplaceEventRow, error) {
	row := baseRow(env)
	row.OrderID = id(e.OrderID)
	row.PaymentMethod = text(string(enums.PaymentMethodRazorpay))
	return row, nil
}

func statusChangedRow(env types.Envelope, e *payloads.OrderStatusChangedEvent) (types.MarketplaceEventRow, error) {
	if !e.To.IsValid() {
		return types.MarketplaceEventRow{}, fmt.Errorf("invalid target status %q", e.To)
	}
	row := baseRow(env)
	row.OrderID = id(e.OrderID)
	row.FromStatus = text(string(e.From))
	row.Status = text(string(e.To))
	if role := text(string(e.ActorRole)); role != nil {
		row.ActorRole = role
	}
	return row, nil
}

func productCreatedRow(env types.Envelope, e *payloads.ProductCreatedEvent) (types.MarketplaceEventRow, error) {
	row := baseRow(env)
	row.ProductID = id(e.ProductID)
	row.SellerIDs = []string{e.SellerID.String()}
	row.AmountPaise = &e.PricePerKgPaise
	return row, nil
}

// text maps blank strings to NULL.
func text(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func id(v uuid.UUID) *string {
	if v == uuid.Nil {
		return nil
	}
	return text(v.String())
}
