package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/martinquesada/tienda-backend/api/middleware"
	"github.com/martinquesada/tienda-backend/api/responses"
	invoicesvc "github.com/martinquesada/tienda-backend/internal/invoices"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// InvoiceDownload streams the invoice PDF to the order owner.
func InvoiceDownload(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		access := invoicesvc.DownloadAccess{
			Email: middleware.UserEmailFromContext(r.Context()),
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			access.UserID = &parsed
		}

		invoice, data, err := svc.Download(r.Context(), chi.URLParam(r, "number"), access)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.Number+".pdf"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
