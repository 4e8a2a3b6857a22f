package controllers

import (
	"net/http"
	"strings"

	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/internal/agents"
	productsvc "github.com/sabjimart/sabji-backend/internal/products"
	"github.com/sabjimart/sabji-backend/internal/reports"
	"github.com/sabjimart/sabji-backend/internal/sellers"
	"github.com/sabjimart/sabji-backend/internal/users"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// SellerAction names a moderation step an admin can apply to a seller.
type SellerAction string

const (
	SellerApprove SellerAction = "approve"
	SellerReject  SellerAction = "reject"
	SellerBlock   SellerAction = "block"
	SellerUnblock SellerAction = "unblock"
)

// AdminSellers lists sellers, optionally filtered by ?status=.
func AdminSellers(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}
		items, err := svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminSellerAction applies action to the seller in the {id} path segment.
func AdminSellerAction(svc sellers.Service, action SellerAction, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch action {
		case SellerApprove:
			err = svc.Approve(r.Context(), id)
		case SellerReject:
			err = svc.Reject(r.Context(), id)
		case SellerBlock:
			err = svc.SetBlocked(r.Context(), id, true)
		case SellerUnblock:
			err = svc.SetBlocked(r.Context(), id, false)
		default:
			err = pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported seller action %q", action)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"seller_id": id.String(), "action": string(action)})
			logg.Info(ctx, "seller moderated")
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String(), "action": string(action)})
	}
}

// ProductAction names a moderation step for a listing.
type ProductAction string

const (
	ProductApprove ProductAction = "approve"
	ProductReject  ProductAction = "reject"
)

// AdminPendingProducts lists listings that have not been approved yet, oldest first.
func AdminPendingProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		items, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminProductAction approves or rejects the listing in the {id} path segment.
// Rejecting deletes the listing.
func AdminProductAction(svc productsvc.Service, action ProductAction, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch action {
		case ProductApprove:
			err = svc.ApproveProduct(r.Context(), id)
		case ProductReject:
			err = svc.RejectProduct(r.Context(), id)
		default:
			err = pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported product action %q", action)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"product_id": id.String(), "action": string(action)})
			logg.Info(ctx, "product moderated")
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String(), "action": string(action)})
	}
}

// AdminDeliveryAgents lists delivery agents, optionally filtered by ?approved=true|false.
func AdminDeliveryAgents(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery agent service unavailable"))
			return
		}
		items, err := svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("approved")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminApproveDeliveryAgent approves an agent so it can log in and receive assignments.
func AdminApproveDeliveryAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery agent service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Approve(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String(), "action": "approve"})
	}
}

// AdminCustomers lists customer accounts.
func AdminCustomers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		items, err := svc.ListCustomers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminSetUserBlocked blocks or unblocks a customer.
func AdminSetUserBlocked(svc users.Service, blocked bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetBlocked(r.Context(), id, blocked); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id.String(), "isBlocked": blocked})
	}
}

// AdminReports returns marketplace totals over delivered orders.
func AdminReports(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}
		report, err := svc.AdminReport(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
