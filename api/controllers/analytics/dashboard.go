package analytics

import (
	"net/http"

	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/internal/analytics"
	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// Dashboard serves the event-sourced marketplace dashboard. Admins see the whole
// marketplace; sellers are scoped to their own line items.
func Dashboard(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		req := types.DashboardRequest{}
		switch principal.Role {
		case enums.RoleAdmin:
		case enums.RoleSeller:
			sellerID := principal.ID
			req.SellerID = &sellerID
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "analytics access required"))
			return
		}

		span, err := windowFromQuery(r.URL.Query(), clock())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Start, req.End = span.start, span.end

		result, err := service.Dashboard(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
