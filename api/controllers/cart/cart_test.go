package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/api/middleware"
	cartsvc "github.com/sabjimart/sabji-backend/internal/cart"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

type memoryCartStore struct {
	carts map[string]cartsvc.Cart
}

func (m *memoryCartStore) Load(_ context.Context, sessionID string) (cartsvc.Cart, error) {
	return m.carts[sessionID], nil
}

func (m *memoryCartStore) Save(_ context.Context, sessionID string, c cartsvc.Cart) error {
	m.carts[sessionID] = c
	return nil
}

func (m *memoryCartStore) Clear(_ context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

type catalogPricer struct {
	products map[uuid.UUID]cartsvc.PricedProduct
}

func (c catalogPricer) Resolve(_ context.Context, vendorID, productID uuid.UUID) (cartsvc.PricedProduct, error) {
	p, ok := c.products[productID]
	if !ok {
		return cartsvc.PricedProduct{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if p.VendorID != vendorID {
		return cartsvc.PricedProduct{}, pkgerrors.New(pkgerrors.CodeValidation, "vendor does not sell this product")
	}
	return p, nil
}

type fixture struct {
	svc      cartsvc.Service
	store    *memoryCartStore
	customer uuid.UUID
	vendor   uuid.UUID
	carrot   uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		store:    &memoryCartStore{carts: map[string]cartsvc.Cart{}},
		customer: uuid.New(),
		vendor:   uuid.New(),
		carrot:   uuid.New(),
	}
	pricer := catalogPricer{products: map[uuid.UUID]cartsvc.PricedProduct{
		f.carrot: {VendorID: f.vendor, VendorName: "Green Basket", ProductID: f.carrot, Name: "Carrot", UnitPricePaise: 4000},
	}}
	svc, err := cartsvc.NewService(f.store, pricer)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f fixture) request(method, target, body string, params ...string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithPrincipal(ctx, middleware.Principal{ID: f.customer, Role: enums.RoleCustomer})
	return req.WithContext(ctx)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var envelope struct {
		Data View `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope.Data
}

func TestCartAddMergesSamePair(t *testing.T) {
	f := newFixture(t)
	handler := CartAdd(f.svc, nil)
	body := `{"vendorId":"` + f.vendor.String() + `","productId":"` + f.carrot.String() + `","productName":"Carrot","price":1,"qty":"2"}`

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, f.request(http.MethodPost, "/api/v1/cart/add", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data AddResponse `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !envelope.Data.Success || envelope.Data.CartCount != 1 {
			t.Fatalf("unexpected add response %+v", envelope.Data)
		}
	}

	rec := httptest.NewRecorder()
	CartFetch(f.svc, nil).ServeHTTP(rec, f.request(http.MethodGet, "/api/v1/cart", ""))
	view := decodeView(t, rec)
	if len(view.Items) != 1 || view.Items[0].Qty != 4 {
		t.Fatalf("expected one line with qty 4, got %+v", view.Items)
	}
	if view.Items[0].SubtotalPaise != 16000 || view.TotalPaise != 16000 {
		t.Fatalf("expected catalog pricing, got %+v", view)
	}
}

func TestCartAddRejectsWrongVendor(t *testing.T) {
	f := newFixture(t)
	body := `{"vendorId":"` + uuid.NewString() + `","productId":"` + f.carrot.String() + `","qty":1}`

	rec := httptest.NewRecorder()
	CartAdd(f.svc, nil).ServeHTTP(rec, f.request(http.MethodPost, "/api/v1/cart/add", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCartUpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	addBody := `{"vendorId":"` + f.vendor.String() + `","productId":"` + f.carrot.String() + `","qty":1}`
	CartAdd(f.svc, nil).ServeHTTP(httptest.NewRecorder(), f.request(http.MethodPost, "/api/v1/cart/add", addBody))

	rec := httptest.NewRecorder()
	CartUpdate(f.svc, nil).ServeHTTP(rec, f.request(http.MethodPost, "/api/v1/cart/update/x", `{"qty":0}`, "productId", f.carrot.String()))
	view := decodeView(t, rec)
	if len(view.Items) != 1 || view.Items[0].Qty != 1 {
		t.Fatalf("expected qty clamped to 1, got %+v", view.Items)
	}

	rec = httptest.NewRecorder()
	CartRemove(f.svc, nil).ServeHTTP(rec, f.request(http.MethodPost, "/api/v1/cart/remove/x", "", "productId", f.carrot.String()))
	view = decodeView(t, rec)
	if view.Count != 0 || view.TotalPaise != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestSetCartAcceptsEncodedString(t *testing.T) {
	f := newFixture(t)
	snapshot := `[{"vendorId":"` + f.vendor.String() + `","productId":"` + f.carrot.String() + `","name":"Carrot","price":"1","qty":"3"},{"vendorId":"` + f.vendor.String() + `","productId":"` + uuid.NewString() + `","qty":1}]`
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	rec := httptest.NewRecorder()
	SetCart(f.svc, nil).ServeHTTP(rec, f.request(http.MethodPost, "/api/v1/set-cart", `{"cartData":`+string(encoded)+`}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Cart     View              `json:"cart"`
			Warnings []cartsvc.Warning `json:"warnings"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Cart.Count != 1 || envelope.Data.Cart.TotalPaise != 12000 {
		t.Fatalf("unexpected cart %+v", envelope.Data.Cart)
	}
	if len(envelope.Data.Warnings) != 1 {
		t.Fatalf("expected one dropped line, got %+v", envelope.Data.Warnings)
	}
}

func TestCartRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{ID: uuid.New(), Role: enums.RoleSeller}))

	rec := httptest.NewRecorder()
	CartFetch(f.svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
