package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
)

type rowSink struct {
	rows []types.MarketplaceEventRow
	err  error
}

func (s *rowSink) InsertMarketplace(_ context.Context, row types.MarketplaceEventRow) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

func envelope(t *testing.T, event enums.AnalyticsEventType, payload any) types.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return types.Envelope{
		EventID:    uuid.NewString(),
		EventType:  event,
		OccurredAt: time.Date(2026, 5, 2, 9, 30, 0, 0, time.FixedZone("IST", 19800)),
		Payload:    raw,
	}
}

func handleOne(t *testing.T, env types.Envelope) types.MarketplaceEventRow {
	t.Helper()
	sink := &rowSink{}
	r, err := NewRouter(sink, nil)
	require.NoError(t, err)
	require.NoError(t, r.Handle(context.Background(), env))
	require.Len(t, sink.rows, 1)
	return sink.rows[0]
}

func TestOrderCreatedRow(t *testing.T) {
	orderID, userID, vendorA, vendorB := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	env := envelope(t, enums.AnalyticsEventOrderCreated, payloads.OrderCreatedEvent{
		OrderID:       orderID,
		UserID:        &userID,
		TotalPaise:    12000,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusUnpaid,
		VendorIDs:     []uuid.UUID{vendorA, vendorB},
		LineItems: []payloads.OrderLineItem{
			{ProductID: uuid.New(), VendorID: vendorA, Name: "Carrot", UnitPricePaise: 4000, Qty: 2, SubtotalPaise: 8000},
			{ProductID: uuid.New(), VendorID: vendorB, Name: "Beans", UnitPricePaise: 4000, Qty: 1, SubtotalPaise: 4000},
		},
		City:    " Pune ",
		Pincode: "411001",
	})
	env.ActorRole = enums.RoleCustomer

	row := handleOne(t, env)
	assert.Equal(t, "order_created", row.EventType)
	assert.Equal(t, env.EventID, row.EventID)
	assert.Equal(t, time.UTC, row.OccurredAt.Location())
	assert.Equal(t, orderID.String(), *row.OrderID)
	assert.Equal(t, userID.String(), *row.UserID)
	assert.Equal(t, []string{vendorA.String(), vendorB.String()}, row.SellerIDs)
	assert.EqualValues(t, 12000, *row.AmountPaise)
	assert.Equal(t, "Pune", *row.City)
	assert.Equal(t, "Pending", *row.Status)
	assert.Equal(t, "customer", *row.ActorRole)
	assert.True(t, row.Items.Valid)
	assert.True(t, row.Payload.Valid)
}

func TestOrderPaidRowUsesCaptureTime(t *testing.T) {
	paidAt := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	row := handleOne(t, envelope(t, enums.AnalyticsEventOrderPaid, payloads.OrderPaidEvent{
		OrderID:                uuid.New(),
		ExternalPaymentOrderID: "order_R1",
		ExternalPaymentID:      "pay_R1",
		AmountPaise:            8000,
		PaidAt:                 paidAt,
	}))

	assert.Equal(t, paidAt, row.OccurredAt)
	assert.Equal(t, string(enums.PaymentMethodRazorpay), *row.PaymentMethod)
	assert.EqualValues(t, 8000, *row.AmountPaise)
	assert.Nil(t, row.ActorRole)
}

func TestStatusChangedRow(t *testing.T) {
	row := handleOne(t, envelope(t, enums.AnalyticsEventOrderStatusChanged, payloads.OrderStatusChangedEvent{
		OrderID:   uuid.New(),
		From:      enums.OrderStatusPickedUp,
		To:        enums.OrderStatusDelivered,
		ActorRole: enums.RoleDelivery,
	}))

	assert.Equal(t, "Picked Up", *row.FromStatus)
	assert.Equal(t, "Delivered", *row.Status)
	assert.Equal(t, "delivery", *row.ActorRole)
}

func TestProductCreatedRow(t *testing.T) {
	sellerID := uuid.New()
	event := payloads.ProductCreatedEvent{ProductID: uuid.New(), SellerID: sellerID, Name: "Spinach", Slug: "spinach", PricePerKgPaise: 3500}
	row := handleOne(t, envelope(t, enums.AnalyticsEventProductCreated, event))

	assert.Equal(t, event.ProductID.String(), *row.ProductID)
	assert.Equal(t, []string{sellerID.String()}, row.SellerIDs)
	assert.Nil(t, row.OrderID)
}

func TestHandleRejects(t *testing.T) {
	badStatus := types.Envelope{
		EventType: enums.AnalyticsEventOrderStatusChanged,
		Payload:   []byte(`{"order_id":"` + uuid.NewString() + `","from":"Pending","to":"Lost"}`),
	}
	cases := map[string]struct {
		env         types.Envelope
		unsupported bool
	}{
		"unknown type":   {env: types.Envelope{EventType: "coupon.created", Payload: []byte(`{}`)}, unsupported: true},
		"empty payload":  {env: types.Envelope{EventType: enums.AnalyticsEventOrderPaid}},
		"bad json":       {env: types.Envelope{EventType: enums.AnalyticsEventOrderPaid, Payload: []byte(`{`)}},
		"invalid status": {env: badStatus},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &rowSink{}
			r, err := NewRouter(sink, nil)
			require.NoError(t, err)

			err = r.Handle(context.Background(), tc.env)
			require.Error(t, err)
			assert.Equal(t, tc.unsupported, errors.Is(err, ErrUnsupportedEventType))
			assert.Empty(t, sink.rows)
		})
	}
}

func TestHandleWrapsWriterError(t *testing.T) {
	down := errors.New("bq down")
	r, err := NewRouter(&rowSink{err: down}, nil)
	require.NoError(t, err)

	err = r.Handle(context.Background(), envelope(t, enums.AnalyticsEventOrderPaymentFailed,
		payloads.OrderPaymentFailedEvent{OrderID: uuid.New(), ExternalPaymentOrderID: "order_X"}))
	assert.ErrorIs(t, err, down)
}

func TestNewRouterNeedsWriter(t *testing.T) {
	_, err := NewRouter(nil, nil)
	assert.Error(t, err)
}
