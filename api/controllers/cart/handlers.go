package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	cartsvc "github.com/sabjimart/sabji-backend/internal/cart"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// View is the cart as rendered to the customer.
type View struct {
	Items      []cartsvc.Item `json:"items"`
	TotalPaise int64          `json:"totalPaise"`
	Count      int            `json:"count"`
}

func newView(c cartsvc.Cart) View {
	items := c.Items
	if items == nil {
		items = []cartsvc.Item{}
	}
	return View{Items: items, TotalPaise: c.Total(), Count: c.Count()}
}

// AddResponse mirrors the storefront's add-to-cart contract.
type AddResponse struct {
	Success   bool `json:"success"`
	CartCount int  `json:"cartCount"`
}

type addItemRequest struct {
	VendorID    string `json:"vendorId" validate:"required"`
	VendorName  string `json:"vendorName"`
	ProductID   string `json:"productId" validate:"required"`
	ProductName string `json:"productName"`
	Price       any    `json:"price"`
	Qty         any    `json:"qty"`
}

type updateQtyRequest struct {
	Qty any `json:"qty"`
}

type setCartRequest struct {
	CartData json.RawMessage `json:"cartData"`
}

// CartFetch returns the customer's cart with its total.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(c))
	}
}

// CartAdd adds a product from a vendor, merging with an existing line for the same pair.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendorId"))
			return
		}
		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId"))
			return
		}

		// price is advisory; the catalog price wins
		c, err := svc.AddItem(r.Context(), sessionID, cartsvc.AddItemInput{
			VendorID:    vendorID,
			ProductID:   productID,
			VendorName:  payload.VendorName,
			ProductName: payload.ProductName,
			Qty:         payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, AddResponse{Success: true, CartCount: c.Count()})
	}
}

// CartUpdate sets the quantity of the first line holding {productId}.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.UpdateQuantity(r.Context(), sessionID, productID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(c))
	}
}

// CartRemove drops every line holding {productId}.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.RemoveItem(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(c))
	}
}

// SetCart replaces the cart with a client-held snapshot. cartData may be the list itself or a
// JSON-encoded string of it.
func SetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := decodeSnapshot(payload.CartData)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, warnings, err := svc.ReplaceFromClientSnapshot(r.Context(), sessionID, entries)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if warnings == nil {
			warnings = []cartsvc.Warning{}
		}
		responses.WriteSuccess(w, map[string]any{
			"cart":     newView(c),
			"warnings": warnings,
		})
	}
}

func decodeSnapshot(raw json.RawMessage) ([]cartsvc.SnapshotEntry, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cartData")
		}
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}
	var entries []cartsvc.SnapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cartData")
	}
	return entries, nil
}

func productIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId")
	}
	return id, nil
}

// cartSessionFromContext keys the cart by the authenticated customer.
func cartSessionFromContext(r *http.Request) (string, error) {
	if r == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if principal.Role != enums.RoleCustomer {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	return principal.ID.String(), nil
}
