package razorpaywebhook

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{`
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  contact_name TEXT NOT NULL,
  contact_phone TEXT NOT NULL,
  contact_email TEXT,
  shipping_address TEXT NOT NULL,
  total_paise INTEGER NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'Unpaid',
  payment_method TEXT NOT NULL,
  external_payment_order_id TEXT UNIQUE,
  external_payment_id TEXT,
  status TEXT NOT NULL DEFAULT 'Pending',
  delivery_agent_id TEXT,
  paid_at DATETIME,
  cancelled_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_paise INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  subtotal_paise INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedOnlineOrder(t *testing.T, conn *gorm.DB, externalID string, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                     uuid.New(),
		ContactName:            "Asha Patil",
		ContactPhone:           "9000000000",
		ShippingAddress:        types.ShippingAddress{Street: "4 Station Road", City: "Nashik", State: "MH", Pincode: "422001"},
		TotalPaise:             45000,
		PaymentStatus:          enums.PaymentStatusUnpaid,
		PaymentMethod:          enums.PaymentMethodRazorpay,
		ExternalPaymentOrderID: &externalID,
		Status:                 status,
		LineItems: []models.OrderLineItem{{
			ProductID:      uuid.New(),
			VendorID:       uuid.New(),
			Name:           "Tomato",
			UnitPricePaise: 4500,
			Qty:            10,
			SubtotalPaise:  45000,
		}},
	}
	require.NoError(t, orders.NewRepository(conn).Create(t.Context(), order))
	return order
}

func newWebhookService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Orders:            orders.NewRepository(conn),
		TransactionRunner: db.NewFromConn(conn),
		Outbox:            outbox.NewService(outbox.NewRepository(conn), nil),
		Now:               func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func capturedEvent(orderID, paymentID string) razorpay.WebhookEvent {
	event := razorpay.WebhookEvent{Event: razorpay.EventPaymentCaptured}
	event.Payload.Payment.Entity = razorpay.PaymentEntity{ID: paymentID, OrderID: orderID, Amount: 45000, Status: "captured"}
	return event
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Table("outbox_events").Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func TestCapturedMarksOrderPaidOnce(t *testing.T) {
	conn := setupWebhookTestDB(t)
	order := seedOnlineOrder(t, conn, "order_Nx12", enums.OrderStatusPending)
	svc := newWebhookService(t, conn)

	outcome, err := svc.HandleEvent(t.Context(), capturedEvent("order_Nx12", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	require.NotNil(t, stored.ExternalPaymentID)
	assert.Equal(t, "pay_1", *stored.ExternalPaymentID)
	assert.NotNil(t, stored.PaidAt)

	outcome, err = svc.HandleEvent(t.Context(), capturedEvent("order_Nx12", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, outcome)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderPaid))
}

func TestCapturedDoesNotRegressFulfillment(t *testing.T) {
	conn := setupWebhookTestDB(t)
	order := seedOnlineOrder(t, conn, "order_late", enums.OrderStatusProcessing)
	svc := newWebhookService(t, conn)

	_, err := svc.HandleEvent(t.Context(), capturedEvent("order_late", "pay_2"))
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusProcessing, stored.Status)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
}

func TestCapturedUnknownOrMissingOrder(t *testing.T) {
	conn := setupWebhookTestDB(t)
	svc := newWebhookService(t, conn)

	outcome, err := svc.HandleEvent(t.Context(), capturedEvent("order_missing", "pay_3"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownOrder, outcome)

	outcome, err = svc.HandleEvent(t.Context(), capturedEvent("", "pay_3"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingOrder, outcome)
	assert.Equal(t, int64(0), countEvents(t, conn, enums.EventOrderPaid))
}

func TestFailedLeavesOrderUnpaid(t *testing.T) {
	conn := setupWebhookTestDB(t)
	order := seedOnlineOrder(t, conn, "order_fail", enums.OrderStatusPending)
	svc := newWebhookService(t, conn)

	event := razorpay.WebhookEvent{Event: razorpay.EventPaymentFailed}
	event.Payload.Payment.Entity = razorpay.PaymentEntity{ID: "pay_4", OrderID: "order_fail", ErrorCode: "BAD_REQUEST_ERROR"}

	outcome, err := svc.HandleEvent(t.Context(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderPaymentFailed))
}

func TestOtherEventsIgnored(t *testing.T) {
	conn := setupWebhookTestDB(t)
	svc := newWebhookService(t, conn)

	outcome, err := svc.HandleEvent(t.Context(), razorpay.WebhookEvent{Event: "refund.created"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}
