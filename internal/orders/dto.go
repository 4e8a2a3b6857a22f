package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

// AdminFilters narrows the admin order listing. Dates are inclusive.
type AdminFilters struct {
	Status       *enums.OrderStatus
	SellerID     *uuid.UUID
	CustomerName string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// LineItemDTO exposes one purchased line.
type LineItemDTO struct {
	ProductID      uuid.UUID `json:"productId"`
	VendorID       uuid.UUID `json:"vendorId"`
	Name           string    `json:"name"`
	UnitPricePaise int64     `json:"unitPricePaise"`
	Qty            int       `json:"qty"`
	SubtotalPaise  int64     `json:"subtotalPaise"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                     uuid.UUID             `json:"id"`
	UserID                 *uuid.UUID            `json:"userId,omitempty"`
	ContactName            string                `json:"contactName"`
	ContactPhone           string                `json:"contactPhone"`
	ContactEmail           *string               `json:"contactEmail,omitempty"`
	ShippingAddress        types.ShippingAddress `json:"shippingAddress"`
	Items                  []LineItemDTO         `json:"items"`
	TotalPaise             int64                 `json:"totalPaise"`
	PaymentStatus          enums.PaymentStatus   `json:"paymentStatus"`
	PaymentMethod          enums.PaymentMethod   `json:"paymentMethod"`
	ExternalPaymentOrderID *string               `json:"razorpayOrderId,omitempty"`
	ExternalPaymentID      *string               `json:"razorpayPaymentId,omitempty"`
	Status                 enums.OrderStatus     `json:"status"`
	DeliveryAgentID        *uuid.UUID            `json:"deliveryAgentId,omitempty"`
	PaidAt                 *time.Time            `json:"paidAt,omitempty"`
	CancelledAt            *time.Time            `json:"cancelledAt,omitempty"`
	DeliveredAt            *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt              time.Time             `json:"createdAt"`
	UpdatedAt              time.Time             `json:"updatedAt"`
}

// NewOrderDTO maps an order and its loaded line items.
func NewOrderDTO(o models.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		items = append(items, LineItemDTO{
			ProductID:      item.ProductID,
			VendorID:       item.VendorID,
			Name:           item.Name,
			UnitPricePaise: item.UnitPricePaise,
			Qty:            item.Qty,
			SubtotalPaise:  item.SubtotalPaise,
		})
	}
	return OrderDTO{
		ID:                     o.ID,
		UserID:                 o.UserID,
		ContactName:            o.ContactName,
		ContactPhone:           o.ContactPhone,
		ContactEmail:           o.ContactEmail,
		ShippingAddress:        o.ShippingAddress,
		Items:                  items,
		TotalPaise:             o.TotalPaise,
		PaymentStatus:          o.PaymentStatus,
		PaymentMethod:          o.PaymentMethod,
		ExternalPaymentOrderID: o.ExternalPaymentOrderID,
		ExternalPaymentID:      o.ExternalPaymentID,
		Status:                 o.Status,
		DeliveryAgentID:        o.DeliveryAgentID,
		PaidAt:                 o.PaidAt,
		CancelledAt:            o.CancelledAt,
		DeliveredAt:            o.DeliveredAt,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
	}
}

// VendorItems keeps only the lines sold by vendorID, for seller views.
func (d OrderDTO) VendorItems(vendorID uuid.UUID) OrderDTO {
	filtered := make([]LineItemDTO, 0, len(d.Items))
	for _, item := range d.Items {
		if item.VendorID == vendorID {
			filtered = append(filtered, item)
		}
	}
	d.Items = filtered
	return d
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewOrderDTO(row))
	}
	return out
}

// AdminQuery carries the raw admin list query string values.
type AdminQuery struct {
	Status       string
	SellerID     string
	CustomerName string
	DateFrom     string
	DateTo       string
	Limit        int
	Offset       int
}
