package checkout

import (
	"github.com/sabjimart/sabji-backend/internal/cart"
	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

// PlaceOrderInput is the checkout form. PaymentStatus is accepted from clients but never trusted.
type PlaceOrderInput struct {
	ContactName     string
	ContactPhone    string
	ContactEmail    *string
	ShippingAddress types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
	PaymentStatus   string
	GatewayOrderID  string
}

// Preview is the priced cart shown before placing the order.
type Preview struct {
	Items      []cart.Item `json:"items"`
	TotalPaise int64       `json:"totalPaise"`
	Count      int         `json:"count"`
}

// GatewayOrderResult is returned to the browser to open the payment widget.
type GatewayOrderResult struct {
	Order razorpay.GatewayOrder `json:"order"`
	KeyID string                `json:"keyId"`
}

// PlaceOrderResult is the created order plus the gateway handle for online payments.
type PlaceOrderResult struct {
	Order        orders.OrderDTO        `json:"order"`
	ContactName  string                 `json:"contactName"`
	GatewayOrder *razorpay.GatewayOrder `json:"gatewayOrder,omitempty"`
	KeyID        string                 `json:"keyId,omitempty"`
}
