package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	checkoutsvc "github.com/sabjimart/sabji-backend/internal/checkout"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

const cartPath = "/cart"

// CheckoutPreview returns the repriced cart or sends an empty cart back to /cart.
func CheckoutPreview(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preview, err := svc.Preview(r.Context(), customerID)
		if err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				redirectToCart(w, r)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if preview.Count == 0 {
			redirectToCart(w, r)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

type gatewayOrderRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// CreateGatewayOrder opens a Razorpay order for the given amount or the current cart total.
func CreateGatewayOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req gatewayOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.CreateGatewayOrder(r.Context(), customerID, req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type placeOrderRequest struct {
	Name           string  `json:"name" validate:"required,max=120"`
	Phone          string  `json:"phone" validate:"required,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Address        string  `json:"address" validate:"required,max=255"`
	City           string  `json:"city" validate:"required,max=100"`
	State          string  `json:"state" validate:"required,max=100"`
	Pincode        string  `json:"pincode" validate:"required,max=12"`
	PaymentMethod  string  `json:"paymentMethod" validate:"required"`
	PaymentStatus  string  `json:"paymentStatus,omitempty"`
	GatewayOrderID string  `json:"razorpayOrderId,omitempty"`
}

// PlaceOrder converts the customer's cart into an order.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// an empty cart redirects whatever the form holds
		if err := svc.RequireItems(r.Context(), customerID); err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				redirectToCart(w, r)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := checkoutsvc.PlaceOrderInput{
			ContactName:  validators.SanitizeString(req.Name, 120),
			ContactPhone: validators.SanitizeString(req.Phone, 20),
			ContactEmail: normalizeEmail(req.Email),
			ShippingAddress: types.ShippingAddress{
				Street:  validators.SanitizeString(req.Address, 255),
				City:    validators.SanitizeString(req.City, 100),
				State:   validators.SanitizeString(req.State, 100),
				Pincode: validators.SanitizeString(req.Pincode, 12),
			},
			PaymentMethod:  method,
			PaymentStatus:  req.PaymentStatus,
			GatewayOrderID: strings.TrimSpace(req.GatewayOrderID),
		}

		result, err := svc.PlaceOrder(r.Context(), customerID, input)
		if err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				redirectToCart(w, r)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func redirectToCart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
