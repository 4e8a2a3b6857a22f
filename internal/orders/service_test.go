package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/pagination"
)

type stubAgents struct {
	agents map[uuid.UUID]*models.DeliveryAgent
}

func (s stubAgents) FindByID(_ context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	if agent, ok := s.agents[id]; ok {
		return agent, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type recordedTransition struct {
	from, to, actor string
}

type stubTransitions struct {
	calls []recordedTransition
}

func (s *stubTransitions) IncTransition(from, to, actor string) {
	s.calls = append(s.calls, recordedTransition{from: from, to: to, actor: actor})
}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	metrics  *stubTransitions
	approved *models.DeliveryAgent
	pending  *models.DeliveryAgent
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := setupOrdersTestDB(t)
	approved := &models.DeliveryAgent{ID: uuid.New(), Name: "Vikram", IsApproved: true}
	pending := &models.DeliveryAgent{ID: uuid.New(), Name: "Sunil"}
	metrics := &stubTransitions{}

	svc, err := NewService(
		NewRepository(conn),
		db.NewFromConn(conn),
		stubAgents{agents: map[uuid.UUID]*models.DeliveryAgent{approved.ID: approved, pending.ID: pending}},
		outbox.NewService(outbox.NewRepository(conn), nil),
		metrics,
		nil,
	)
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, metrics: metrics, approved: approved, pending: pending}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestSellerMovesOwnOrderToProcessing(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: sellerID})

	dto, err := f.svc.UpdateStatus(t.Context(), Actor{ID: sellerID, Role: enums.RoleSeller}, order.ID, enums.OrderStatusProcessing, "")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)
	assert.Equal(t, int64(1), countOutboxEvents(t, f.conn, enums.EventOrderStatusChanged))
	require.Len(t, f.metrics.calls, 1)
	assert.Equal(t, recordedTransition{from: "Pending", to: "Processing", actor: "seller"}, f.metrics.calls[0])
}

func TestSellerCannotTouchForeignOrder(t *testing.T) {
	f := newFixture(t)
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New()})

	_, err := f.svc.UpdateStatus(t.Context(), Actor{ID: uuid.New(), Role: enums.RoleSeller}, order.ID, enums.OrderStatusProcessing, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, int64(0), countOutboxEvents(t, f.conn, enums.EventOrderStatusChanged))
}

func TestSellerCannotTargetDelivered(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: sellerID})

	_, err := f.svc.UpdateStatus(t.Context(), Actor{ID: sellerID, Role: enums.RoleSeller}, order.ID, enums.OrderStatusDelivered, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: sellerID, status: enums.OrderStatusProcessing})

	dto, err := f.svc.UpdateStatus(t.Context(), Actor{ID: sellerID, Role: enums.RoleSeller}, order.ID, enums.OrderStatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)
	assert.Equal(t, int64(0), countOutboxEvents(t, f.conn, enums.EventOrderStatusChanged))
	assert.Empty(t, f.metrics.calls)
}

func TestBackwardTransitionReturnsStateConflict(t *testing.T) {
	f := newFixture(t)
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New(), status: enums.OrderStatusDelivered})

	_, err := f.svc.UpdateStatus(t.Context(), Actor{Role: enums.RoleAdmin}, order.ID, enums.OrderStatusCancelled, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var transition *TransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, enums.OrderStatusDelivered, transition.From)
}

func TestAdminCannotSkipAgentAssignment(t *testing.T) {
	f := newFixture(t)
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New(), status: enums.OrderStatusProcessing})

	_, err := f.svc.UpdateStatus(t.Context(), Actor{Role: enums.RoleAdmin}, order.ID, enums.OrderStatusAccepted, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAssignThenDeliveryFlow(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: sellerID, status: enums.OrderStatusProcessing})
	seller := Actor{ID: sellerID, Role: enums.RoleSeller}
	agent := Actor{ID: f.approved.ID, Role: enums.RoleDelivery}
	ctx := t.Context()

	dto, err := f.svc.AssignDeliveryAgent(ctx, seller, order.ID, f.approved.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAssigned, dto.Status)
	require.NotNil(t, dto.DeliveryAgentID)
	assert.Equal(t, f.approved.ID, *dto.DeliveryAgentID)

	dashboard, err := f.svc.DeliveryDashboard(ctx, f.approved.ID)
	require.NoError(t, err)
	require.Len(t, dashboard, 1)

	for _, next := range []enums.OrderStatus{enums.OrderStatusAccepted, enums.OrderStatusPickedUp, enums.OrderStatusDelivered} {
		dto, err = f.svc.UpdateStatus(ctx, agent, order.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, dto.Status)
	}
	assert.NotNil(t, dto.DeliveredAt)
	assert.Equal(t, int64(4), countOutboxEvents(t, f.conn, enums.EventOrderStatusChanged))
	assert.Len(t, f.metrics.calls, 4)

	dashboard, err = f.svc.DeliveryDashboard(ctx, f.approved.ID)
	require.NoError(t, err)
	assert.Empty(t, dashboard)
}

func TestDeliveryAgentCannotMoveUnassignedOrder(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New(), status: enums.OrderStatusAssigned, agentID: &other})

	_, err := f.svc.UpdateStatus(t.Context(), Actor{ID: f.approved.ID, Role: enums.RoleDelivery}, order.ID, enums.OrderStatusAccepted, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAssignRejectsUnapprovedAgent(t *testing.T) {
	f := newFixture(t)
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New()})

	_, err := f.svc.AssignDeliveryAgent(t.Context(), Actor{Role: enums.RoleAdmin}, order.ID, f.pending.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AssignDeliveryAgent(t.Context(), Actor{Role: enums.RoleAdmin}, order.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AssignDeliveryAgent(t.Context(), Actor{ID: f.approved.ID, Role: enums.RoleDelivery}, order.ID, f.approved.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestSystemCancelSetsTimestamp(t *testing.T) {
	f := newFixture(t)
	order := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New(), method: enums.PaymentMethodRazorpay})

	dto, err := f.svc.UpdateStatus(t.Context(), SystemActor, order.ID, enums.OrderStatusCancelled, "payment window expired")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.NotNil(t, dto.CancelledAt)
}

func TestCustomerReads(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, f.conn, orderSeed{userID: &userID, vendorID: uuid.New(), createdAt: base.Add(time.Duration(i) * time.Minute)})
	}
	foreign := seedOrder(t, f.conn, orderSeed{vendorID: uuid.New()})

	page, err := f.svc.ListForCustomer(t.Context(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	next, err := f.svc.ListForCustomer(t.Context(), userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	got, err := f.svc.GetForCustomer(t.Context(), userID, page.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalPaise, got.Items[0].SubtotalPaise)

	_, err = f.svc.GetForCustomer(t.Context(), userID, foreign.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.ListForCustomer(t.Context(), userID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListForAdminFilters(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	seedOrder(t, f.conn, orderSeed{vendorID: sellerID, contact: "Meera Joshi"})
	seedOrder(t, f.conn, orderSeed{vendorID: uuid.New(), contact: "Kiran Rao", status: enums.OrderStatusProcessing})
	ctx := t.Context()

	all, err := f.svc.ListForAdmin(ctx, AdminQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySeller, err := f.svc.ListForAdmin(ctx, AdminQuery{SellerID: sellerID.String()})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, "Meera Joshi", bySeller[0].ContactName)

	invalidSeller, err := f.svc.ListForAdmin(ctx, AdminQuery{SellerID: "not-a-uuid"})
	require.NoError(t, err)
	assert.Empty(t, invalidSeller)

	byName, err := f.svc.ListForAdmin(ctx, AdminQuery{CustomerName: "kiran"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byStatus, err := f.svc.ListForAdmin(ctx, AdminQuery{Status: "Processing"})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	today := time.Now().UTC().Format(adminDateLayout)
	byDate, err := f.svc.ListForAdmin(ctx, AdminQuery{DateFrom: today, DateTo: today})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	_, err = f.svc.ListForAdmin(ctx, AdminQuery{DateFrom: "yesterday"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.ListForAdmin(ctx, AdminQuery{Status: "Shipped"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListForSellerKeepsOnlyOwnLines(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	order := seedOrder(t, f.conn, orderSeed{vendorID: sellerID})
	require.NoError(t, f.conn.Create(&models.OrderLineItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      uuid.New(),
		VendorID:       uuid.New(),
		Name:           "Beans",
		UnitPricePaise: 6000,
		Qty:            1,
		SubtotalPaise:  6000,
	}).Error)

	rows, err := f.svc.ListForSeller(t.Context(), sellerID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Items, 1)
	assert.Equal(t, "Carrot", rows[0].Items[0].Name)
}
