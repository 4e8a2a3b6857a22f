package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/cart"
	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
)

// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

const externalOrderConstraint = "orders_external_payment_order_id_key"

var minimumGatewayAmount = decimal.NewFromInt(1)

// Service turns a session cart into a persisted order.
type Service interface {
	Preview(ctx context.Context, customerID uuid.UUID) (Preview, error)
	// RequireItems returns ErrEmptyCart when the customer's cart holds nothing.
	RequireItems(ctx context.Context, customerID uuid.UUID) error
	CreateGatewayOrder(ctx context.Context, customerID uuid.UUID, amountRupees *decimal.Decimal) (GatewayOrderResult, error)
	PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSession interface {
	Get(ctx context.Context, sessionID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type repricer interface {
	Reprice(ctx context.Context, c cart.Cart) (cart.Cart, error)
}

type gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (razorpay.GatewayOrder, error)
	KeyID() string
}

type claimStore interface {
	Remember(ctx context.Context, gatewayOrderID string, claim GatewayClaim) error
	Lookup(ctx context.Context, gatewayOrderID string) (GatewayClaim, bool, error)
	Forget(ctx context.Context, gatewayOrderID string) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type checkoutRecorder interface {
	IncCheckout(paymentMethod, result string)
}

// Deps groups the collaborators of the checkout service. Gateway, Metrics and Logger are optional;
// without a gateway only cash-on-delivery orders can be placed.
type Deps struct {
	Tx      txRunner
	Carts   cartSession
	Pricing repricer
	Orders  orders.Repository
	Gateway gateway
	Claims  claimStore
	Outbox  outboxPublisher
	Metrics checkoutRecorder
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	deps Deps
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deps.Pricing == nil {
		return nil, fmt.Errorf("pricing resolver required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Claims == nil {
		return nil, fmt.Errorf("claim store required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}, nil
}

func (s *service) Preview(ctx context.Context, customerID uuid.UUID) (Preview, error) {
	priced, err := s.pricedCart(ctx, customerID)
	if err != nil {
		return Preview{}, err
	}
	return Preview{Items: priced.Items, TotalPaise: priced.Total(), Count: priced.Count()}, nil
}

func (s *service) RequireItems(ctx context.Context, customerID uuid.UUID) error {
	current, err := s.deps.Carts.Get(ctx, customerID.String())
	if err != nil {
		return err
	}
	if current.IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

func (s *service) CreateGatewayOrder(ctx context.Context, customerID uuid.UUID, amountRupees *decimal.Decimal) (GatewayOrderResult, error) {
	if s.deps.Gateway == nil {
		return GatewayOrderResult{}, pkgerrors.New(pkgerrors.CodeDependency, "online payments are unavailable")
	}

	var amountPaise int64
	if amountRupees != nil {
		if amountRupees.LessThan(minimumGatewayAmount) {
			return GatewayOrderResult{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be at least 1 rupee").
				WithDetails(map[string]any{"totalAmount": amountRupees.String()})
		}
		amountPaise = RupeesToPaise(*amountRupees)
	} else {
		priced, err := s.pricedCart(ctx, customerID)
		if err != nil {
			return GatewayOrderResult{}, err
		}
		amountPaise = priced.Total()
		if amountPaise < 100 {
			return GatewayOrderResult{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be at least 1 rupee").
				WithDetails(map[string]any{"totalAmount": PaiseToRupees(amountPaise).String()})
		}
	}

	handle, err := s.createGatewayOrder(ctx, customerID, amountPaise)
	if err != nil {
		return GatewayOrderResult{}, err
	}
	return GatewayOrderResult{Order: handle, KeyID: s.deps.Gateway.KeyID()}, nil
}

func (s *service) PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	method := input.PaymentMethod
	current, err := s.deps.Carts.Get(ctx, customerID.String())
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		s.recordCheckout(method, "empty_cart")
		return nil, ErrEmptyCart
	}
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}

	priced, err := s.deps.Pricing.Reprice(ctx, current)
	if err != nil {
		s.recordCheckout(method, "pricing_failed")
		return nil, err
	}
	total := priced.Total()

	var handle *razorpay.GatewayOrder
	if method.IsOnline() {
		handle, err = s.resolveGatewayOrder(ctx, customerID, strings.TrimSpace(input.GatewayOrderID), total)
		if err != nil {
			s.recordCheckout(method, "gateway_failed")
			return nil, err
		}
	}

	order := buildOrder(customerID, input, priced, handle)
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Orders.WithTx(tx).Create(ctx, order); err != nil {
			if isExternalOrderConflict(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "gateway order already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return s.emitOrderCreated(ctx, tx, customerID, order)
	})
	if err != nil {
		s.recordCheckout(method, "failed")
		return nil, err
	}
	s.recordCheckout(method, "success")

	logCtx := ctx
	if s.deps.Logger != nil {
		logCtx = s.deps.Logger.WithOrderID(ctx, order.ID.String())
		logCtx = s.deps.Logger.WithFields(logCtx, map[string]any{"payment_method": method, "total_paise": total})
		s.deps.Logger.Info(logCtx, "order placed")
	}

	if err := s.deps.Carts.Clear(ctx, customerID.String()); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Error(logCtx, "clear cart after checkout", err)
	}
	if handle != nil {
		if err := s.deps.Claims.Forget(ctx, handle.ID); err != nil && s.deps.Logger != nil {
			s.deps.Logger.Warn(logCtx, "forget gateway order claim failed")
		}
	}

	result := &PlaceOrderResult{
		Order:        orders.NewOrderDTO(*order),
		ContactName:  order.ContactName,
		GatewayOrder: handle,
	}
	if handle != nil {
		result.KeyID = s.deps.Gateway.KeyID()
	}
	return result, nil
}

func (s *service) pricedCart(ctx context.Context, customerID uuid.UUID) (cart.Cart, error) {
	current, err := s.deps.Carts.Get(ctx, customerID.String())
	if err != nil {
		return cart.Cart{}, err
	}
	if current.IsEmpty() {
		return current, nil
	}
	return s.deps.Pricing.Reprice(ctx, current)
}

// resolveGatewayOrder returns the claimed gateway order or creates a new one for total.
func (s *service) resolveGatewayOrder(ctx context.Context, customerID uuid.UUID, gatewayOrderID string, total int64) (*razorpay.GatewayOrder, error) {
	if s.deps.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments are unavailable")
	}

	if gatewayOrderID == "" {
		handle, err := s.createGatewayOrder(ctx, customerID, total)
		if err != nil {
			return nil, err
		}
		return &handle, nil
	}

	claim, ok, err := s.deps.Claims.Lookup(ctx, gatewayOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gateway order")
	}
	if !ok || claim.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway order").
			WithDetails(map[string]any{"razorpayOrderId": gatewayOrderID})
	}
	if claim.AmountPaise != total {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order amount does not match cart total").
			WithDetails(map[string]any{
				"razorpayOrderId": gatewayOrderID,
				"orderAmount":     PaiseToRupees(claim.AmountPaise).String(),
				"totalAmount":     PaiseToRupees(total).String(),
			})
	}
	return &razorpay.GatewayOrder{
		ID:          gatewayOrderID,
		AmountPaise: claim.AmountPaise,
		Currency:    "INR",
		Status:      "created",
	}, nil
}

func (s *service) createGatewayOrder(ctx context.Context, customerID uuid.UUID, amountPaise int64) (razorpay.GatewayOrder, error) {
	receipt := fmt.Sprintf("order_rcptid_%d", s.deps.Now().UnixMilli())
	handle, err := s.deps.Gateway.CreateOrder(ctx, amountPaise, receipt)
	if err != nil {
		return razorpay.GatewayOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}
	if err := s.deps.Claims.Remember(ctx, handle.ID, GatewayClaim{CustomerID: customerID, AmountPaise: amountPaise}); err != nil {
		return razorpay.GatewayOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway order")
	}
	return handle, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, order *models.Order) error {
	items := make([]payloads.OrderLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, payloads.OrderLineItem{
			ProductID:      item.ProductID,
			VendorID:       item.VendorID,
			Name:           item.Name,
			UnitPricePaise: item.UnitPricePaise,
			Qty:            item.Qty,
			SubtotalPaise:  item.SubtotalPaise,
		})
	}

	userID := customerID
	err := s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: &userID, Role: enums.RoleCustomer},
		Data: payloads.OrderCreatedEvent{
			OrderID:                order.ID,
			UserID:                 order.UserID,
			TotalPaise:             order.TotalPaise,
			PaymentMethod:          order.PaymentMethod,
			PaymentStatus:          order.PaymentStatus,
			ExternalPaymentOrderID: order.ExternalPaymentOrderID,
			VendorIDs:              order.VendorIDs(),
			LineItems:              items,
			City:                   order.ShippingAddress.City,
			Pincode:                order.ShippingAddress.Pincode,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}
	return nil
}

func (s *service) recordCheckout(method enums.PaymentMethod, result string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncCheckout(method.String(), result)
	}
}

func buildOrder(customerID uuid.UUID, input PlaceOrderInput, priced cart.Cart, handle *razorpay.GatewayOrder) *models.Order {
	userID := customerID
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          &userID,
		ContactName:     strings.TrimSpace(input.ContactName),
		ContactPhone:    strings.TrimSpace(input.ContactPhone),
		ContactEmail:    input.ContactEmail,
		ShippingAddress: input.ShippingAddress,
		TotalPaise:      priced.Total(),
		PaymentStatus:   enums.PaymentStatusUnpaid,
		PaymentMethod:   input.PaymentMethod,
		Status:          enums.OrderStatusPending,
		LineItems:       make([]models.OrderLineItem, 0, len(priced.Items)),
	}
	if handle != nil {
		id := handle.ID
		order.ExternalPaymentOrderID = &id
	}
	for _, item := range priced.Items {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			VendorID:       item.VendorID,
			Name:           item.Name,
			UnitPricePaise: item.UnitPricePaise,
			Qty:            item.Qty,
			SubtotalPaise:  item.SubtotalPaise,
		})
	}
	return order
}

// sqlite reports the column rather than the constraint name.
func isExternalOrderConflict(err error) bool {
	return db.IsUniqueViolation(err, externalOrderConstraint) ||
		db.IsUniqueViolation(err, "orders.external_payment_order_id")
}

func validatePlaceOrder(input PlaceOrderInput) error {
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if strings.TrimSpace(input.ContactName) == "" || strings.TrimSpace(input.ContactPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name and phone are required")
	}
	addr := input.ShippingAddress
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" || strings.TrimSpace(addr.Pincode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	return nil
}

// RupeesToPaise converts a rupee amount to whole paise, rounding half away from zero.
func RupeesToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PaiseToRupees converts paise to a two-decimal rupee amount.
func PaiseToRupees(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}
