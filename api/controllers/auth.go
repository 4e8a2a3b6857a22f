package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	"github.com/sabjimart/sabji-backend/internal/auth"
	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// AuthLogin signs in the role named by the {role} path segment.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := enums.ParseRole(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "role"))))
		if err != nil || role == enums.RoleSystem {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown login role"))
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), role, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Sabji-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AdminAuthRegister creates an admin account. Outside dev and test it answers 404.
func AdminAuthRegister(reg auth.AdminRegisterService, svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg == nil || !cfg.App.AllowsAdminBootstrap() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "not found"))
			return
		}
		if reg == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}

		var body auth.AdminRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := reg.Register(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), enums.RoleAdmin, auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Sabji-Token", result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
