package controllers

import (
	"net/http"

	"github.com/martinquesada/tienda-backend/api/responses"
	"github.com/martinquesada/tienda-backend/api/validators"
	paymentsvc "github.com/martinquesada/tienda-backend/internal/payments"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// PaymentCreatePreference opens a provider checkout for a payable order.
func PaymentCreatePreference(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var body paymentsvc.CreatePreferenceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preference, err := svc.CreatePreference(r.Context(), body.Order)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, preference)
	}
}
