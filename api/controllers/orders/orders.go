// Package orders exposes order listing and fulfillment endpoints for every role.
package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	internalorders "github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/pagination"
)

const (
	defaultAdminLimit = 50
	maxAdminLimit     = 200
	maxAdminOffset    = 1_000_000
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

type assignRequest struct {
	DeliveryAgentID string `json:"deliveryAgentId" validate:"required,uuid"`
}

// action is the body of an order endpoint once the caller's role is checked.
type action func(r *http.Request, actor internalorders.Actor) (any, error)

func serve(svc internalorders.Service, role enums.Role, logg *logger.Logger, act action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := func() (any, error) {
			if svc == nil {
				return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
			}
			actor, err := actorFor(r, role)
			if err != nil {
				return nil, err
			}
			return act(r, actor)
		}()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// CustomerList pages through the caller's orders, newest first.
func CustomerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, enums.RoleCustomer, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			return nil, err
		}
		return svc.ListForCustomer(r.Context(), actor.ID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
	})
}

func CustomerDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, enums.RoleCustomer, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		orderID, err := parseOrderID(r)
		if err != nil {
			return nil, err
		}
		return svc.GetForCustomer(r.Context(), actor.ID, orderID)
	})
}

// SellerList returns orders holding at least one of the seller's products.
func SellerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, enums.RoleSeller, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		return svc.ListForSeller(r.Context(), actor.ID)
	})
}

func DeliveryDashboard(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, enums.RoleDelivery, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		return svc.DeliveryDashboard(r.Context(), actor.ID)
	})
}

// AdminList filters all orders by status, seller, customer name and creation date.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, enums.RoleAdmin, logg, func(r *http.Request, _ internalorders.Actor) (any, error) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultAdminLimit, 1, maxAdminLimit)
		if err != nil {
			return nil, err
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxAdminOffset)
		if err != nil {
			return nil, err
		}
		q := r.URL.Query()
		return svc.ListForAdmin(r.Context(), internalorders.AdminQuery{
			Status:       strings.TrimSpace(q.Get("status")),
			SellerID:     strings.TrimSpace(q.Get("seller")),
			CustomerName: validators.SanitizeString(q.Get("customer"), 120),
			DateFrom:     strings.TrimSpace(q.Get("startDate")),
			DateTo:       strings.TrimSpace(q.Get("endDate")),
			Limit:        limit,
			Offset:       offset,
		})
	})
}

// UpdateStatus moves an order on behalf of role; the service enforces which
// transitions that role may make.
func UpdateStatus(svc internalorders.Service, role enums.Role, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, role, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		orderID, err := parseOrderID(r)
		if err != nil {
			return nil, err
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		to, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		return svc.UpdateStatus(r.Context(), actor, orderID, to, validators.SanitizeString(body.Reason, 255))
	})
}

func AssignAgent(svc internalorders.Service, role enums.Role, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, role, logg, func(r *http.Request, actor internalorders.Actor) (any, error) {
		orderID, err := parseOrderID(r)
		if err != nil {
			return nil, err
		}
		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		// validated as a uuid above
		agentID := uuid.MustParse(body.DeliveryAgentID)
		return svc.AssignDeliveryAgent(r.Context(), actor, orderID, agentID)
	})
}

func actorFor(r *http.Request, role enums.Role) (internalorders.Actor, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	switch {
	case !ok:
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	case p.Role != role:
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "role required")
	}
	return internalorders.Actor{ID: p.ID, Role: p.Role}, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}
