package controllers

import (
	"net/http"

	"github.com/sabjimart/sabji-backend/api/responses"
	"github.com/sabjimart/sabji-backend/api/validators"
	"github.com/sabjimart/sabji-backend/internal/users"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// CustomerProfile returns the signed-in customer's account.
func CustomerProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"max=80"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
	Phone string `json:"phone" validate:"max=20"`
}

// CustomerUpdateProfile edits name, email and phone. Blank fields are left unchanged.
func CustomerUpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), customerID, users.UpdateProfileInput{
			Name:  validators.SanitizeString(body.Name, 80),
			Email: validators.SanitizeString(body.Email, 254),
			Phone: validators.SanitizeString(body.Phone, 20),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// CustomerAddresses lists the signed-in customer's saved addresses.
func CustomerAddresses(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListAddresses(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type addAddressRequest struct {
	Label   string `json:"label" validate:"max=40"`
	Name    string `json:"name" validate:"max=80"`
	Phone   string `json:"phone" validate:"max=20"`
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=80"`
	State   string `json:"state" validate:"required,max=80"`
	Pincode string `json:"pincode" validate:"required,max=12"`
	Country string `json:"country" validate:"max=80"`
}

// CustomerAddAddress saves a delivery address. Country defaults to India.
func CustomerAddAddress(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.AddAddress(r.Context(), customerID, users.AddAddressInput{
			Label:   validators.SanitizeString(body.Label, 40),
			Name:    validators.SanitizeString(body.Name, 80),
			Phone:   validators.SanitizeString(body.Phone, 20),
			Street:  validators.SanitizeString(body.Street, 200),
			City:    validators.SanitizeString(body.City, 80),
			State:   validators.SanitizeString(body.State, 80),
			Pincode: validators.SanitizeString(body.Pincode, 12),
			Country: validators.SanitizeString(body.Country, 80),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

func CustomerDeleteAddress(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		customerID, err := principalID(r, enums.RoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := uuidParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAddress(r.Context(), customerID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
