package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/martinquesada/tienda-backend/api/middleware"
	"github.com/martinquesada/tienda-backend/api/responses"
	ordersvc "github.com/martinquesada/tienda-backend/internal/orders"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// OrderDetail resolves an order by document ID, order number, or external
// reference. Guests prove ownership with the ?ref= reference handed out at
// checkout; sessions match on user ID or email.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		access := ordersvc.AccessContext{
			Email: middleware.UserEmailFromContext(r.Context()),
			Ref:   strings.TrimSpace(r.URL.Query().Get("ref")),
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			access.UserID = &parsed
		}

		view, err := svc.Get(r.Context(), chi.URLParam(r, "key"), access)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
