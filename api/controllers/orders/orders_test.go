package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/api/middleware"
	internalorders "github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/pagination"
)

type stubOrdersService struct {
	internalorders.Service

	actor      internalorders.Actor
	orderID    uuid.UUID
	to         enums.OrderStatus
	reason     string
	agentID    uuid.UUID
	params     pagination.Params
	adminQuery internalorders.AdminQuery
	err        error
}

func (s *stubOrdersService) UpdateStatus(_ context.Context, actor internalorders.Actor, orderID uuid.UUID, to enums.OrderStatus, reason string) (*internalorders.OrderDTO, error) {
	s.actor, s.orderID, s.to, s.reason = actor, orderID, to, reason
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: to}, nil
}

func (s *stubOrdersService) AssignDeliveryAgent(_ context.Context, actor internalorders.Actor, orderID, agentID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.actor, s.orderID, s.agentID = actor, orderID, agentID
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: enums.OrderStatusAssigned, DeliveryAgentID: &agentID}, nil
}

func (s *stubOrdersService) GetForCustomer(_ context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.actor = internalorders.Actor{ID: userID}
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, UserID: &userID}, nil
}

func (s *stubOrdersService) ListForCustomer(_ context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[internalorders.OrderDTO], error) {
	s.actor = internalorders.Actor{ID: userID}
	s.params = params
	return pagination.Page[internalorders.OrderDTO]{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrdersService) ListForAdmin(_ context.Context, query internalorders.AdminQuery) ([]internalorders.OrderDTO, error) {
	s.adminQuery = query
	return []internalorders.OrderDTO{}, s.err
}

func (s *stubOrdersService) DeliveryDashboard(_ context.Context, agentID uuid.UUID) ([]internalorders.OrderDTO, error) {
	s.actor = internalorders.Actor{ID: agentID}
	return []internalorders.OrderDTO{}, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-controller-test", Output: io.Discard})
}

func newRequest(method, target, body string, role enums.Role, id uuid.UUID, orderID string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithPrincipal(req.Context(), middleware.Principal{ID: id, Role: role})
	if orderID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderId", orderID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestSellerUpdateStatusPassesActor(t *testing.T) {
	svc := &stubOrdersService{}
	sellerID := uuid.New()
	orderID := uuid.New()

	req := newRequest(http.MethodPost, "/api/v1/seller/orders/x/status", `{"status":"Processing"}`, enums.RoleSeller, sellerID, orderID.String())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, enums.RoleSeller, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.actor.ID != sellerID || svc.actor.Role != enums.RoleSeller {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
	if svc.orderID != orderID || svc.to != enums.OrderStatusProcessing {
		t.Fatalf("unexpected transition %s -> %s", svc.orderID, svc.to)
	}
}

func TestDeliveryUpdateStatusAcceptsSpacedStatus(t *testing.T) {
	svc := &stubOrdersService{}

	req := newRequest(http.MethodPost, "/api/v1/delivery/orders/x/status", `{"status":"Picked Up"}`, enums.RoleDelivery, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, enums.RoleDelivery, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.to != enums.OrderStatusPickedUp {
		t.Fatalf("expected Picked Up, got %q", svc.to)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}

	req := newRequest(http.MethodPost, "/api/admin/orders/x/status", `{"status":"Teleported"}`, enums.RoleAdmin, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, enums.RoleAdmin, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.orderID != uuid.Nil {
		t.Fatal("service should not be called")
	}
}

func TestUpdateStatusSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}

	req := newRequest(http.MethodPost, "/api/v1/seller/orders/x/status", `{"status":"Delivered"}`, enums.RoleSeller, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, enums.RoleSeller, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %q", code)
	}
}

func TestUpdateStatusWrongRole(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/v1/seller/orders/x/status", `{"status":"Processing"}`, enums.RoleCustomer, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	UpdateStatus(&stubOrdersService{}, enums.RoleSeller, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAssignAgent(t *testing.T) {
	svc := &stubOrdersService{}
	agentID := uuid.New()

	body := `{"deliveryAgentId":"` + agentID.String() + `"}`
	req := newRequest(http.MethodPost, "/api/admin/orders/x/assign", body, enums.RoleAdmin, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	AssignAgent(svc, enums.RoleAdmin, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.agentID != agentID || svc.actor.Role != enums.RoleAdmin {
		t.Fatalf("unexpected assignment agent=%s actor=%+v", svc.agentID, svc.actor)
	}
}

func TestAssignAgentInvalidOrderID(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/admin/orders/x/assign", `{"deliveryAgentId":"`+uuid.NewString()+`"}`, enums.RoleAdmin, uuid.New(), "not-a-uuid")
	rec := httptest.NewRecorder()
	AssignAgent(&stubOrdersService{}, enums.RoleAdmin, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCustomerListPagination(t *testing.T) {
	svc := &stubOrdersService{}
	customerID := uuid.New()

	req := newRequest(http.MethodGet, "/api/v1/orders?limit=10&cursor=abc", "", enums.RoleCustomer, customerID, "")
	rec := httptest.NewRecorder()
	CustomerList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.actor.ID != customerID || svc.params.Limit != 10 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected call actor=%s params=%+v", svc.actor.ID, svc.params)
	}
}

func TestCustomerListLimitOutOfRange(t *testing.T) {
	req := newRequest(http.MethodGet, "/api/v1/orders?limit=500", "", enums.RoleCustomer, uuid.New(), "")
	rec := httptest.NewRecorder()
	CustomerList(&stubOrdersService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCustomerDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	req := newRequest(http.MethodGet, "/api/v1/orders/x", "", enums.RoleCustomer, uuid.New(), uuid.NewString())
	rec := httptest.NewRecorder()
	CustomerDetail(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminListMapsFilters(t *testing.T) {
	svc := &stubOrdersService{}
	sellerID := uuid.NewString()

	target := "/api/admin/orders?status=Pending&seller=" + sellerID + "&customer=Asha&startDate=2026-01-01&endDate=2026-01-31&offset=20"
	req := newRequest(http.MethodGet, target, "", enums.RoleAdmin, uuid.New(), "")
	rec := httptest.NewRecorder()
	AdminList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	q := svc.adminQuery
	if q.Status != "Pending" || q.SellerID != sellerID || q.CustomerName != "Asha" {
		t.Fatalf("unexpected filters %+v", q)
	}
	if q.DateFrom != "2026-01-01" || q.DateTo != "2026-01-31" {
		t.Fatalf("unexpected date range %+v", q)
	}
	if q.Limit != defaultAdminLimit || q.Offset != 20 {
		t.Fatalf("unexpected paging %+v", q)
	}
}

func TestDeliveryDashboardUsesAgent(t *testing.T) {
	svc := &stubOrdersService{}
	agentID := uuid.New()

	req := newRequest(http.MethodGet, "/api/v1/delivery/dashboard", "", enums.RoleDelivery, agentID, "")
	rec := httptest.NewRecorder()
	DeliveryDashboard(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.actor.ID != agentID {
		t.Fatalf("expected agent %s, got %s", agentID, svc.actor.ID)
	}
}
