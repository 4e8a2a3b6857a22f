package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
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

type orderSeed struct {
	userID    *uuid.UUID
	vendorID  uuid.UUID
	contact   string
	method    enums.PaymentMethod
	status    enums.OrderStatus
	agentID   *uuid.UUID
	createdAt time.Time
}

func seedOrder(t *testing.T, conn *gorm.DB, seed orderSeed) *models.Order {
	t.Helper()

	if seed.contact == "" {
		seed.contact = "Asha Patil"
	}
	if seed.method == "" {
		seed.method = enums.PaymentMethodCOD
	}
	if seed.status == "" {
		seed.status = enums.OrderStatusPending
	}
	if seed.createdAt.IsZero() {
		seed.createdAt = time.Now().UTC()
	}

	order := &models.Order{
		ID:           uuid.New(),
		UserID:       seed.userID,
		ContactName:  seed.contact,
		ContactPhone: "9000000000",
		ShippingAddress: types.ShippingAddress{
			Street:  "4 Station Road",
			City:    "Nashik",
			State:   "MH",
			Pincode: "422001",
		},
		TotalPaise:      8000,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		PaymentMethod:   seed.method,
		Status:          seed.status,
		DeliveryAgentID: seed.agentID,
		CreatedAt:       seed.createdAt,
		LineItems: []models.OrderLineItem{{
			ProductID:      uuid.New(),
			VendorID:       seed.vendorID,
			Name:           "Carrot",
			UnitPricePaise: 4000,
			Qty:            2,
			SubtotalPaise:  8000,
		}},
	}
	if seed.method.IsOnline() {
		external := "order_" + uuid.NewString()
		order.ExternalPaymentOrderID = &external
	}
	require.NoError(t, NewRepository(conn).Create(t.Context(), order))
	return order
}

func countOutboxEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Table("outbox_events").Where("event_type = ?", eventType).Count(&count).Error)
	return count
}
