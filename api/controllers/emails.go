package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/martinquesada/tienda-backend/api/responses"
	"github.com/martinquesada/tienda-backend/api/validators"
	emailsvc "github.com/martinquesada/tienda-backend/internal/emails"
	"github.com/martinquesada/tienda-backend/pkg/config"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

const internalTokenHeader = "X-Internal-Token"

type resendConfirmationRequest struct {
	OrderID   int64  `json:"order_id" validate:"required,min=1"`
	PaymentID string `json:"payment_id"`
}

// ResendOrderConfirmation replays a confirmation email for operators. The
// endpoint is gated on a shared internal token, not a customer session.
func ResendOrderConfirmation(svc emailsvc.Service, cfg config.MailConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "emails service unavailable"))
			return
		}

		token := strings.TrimSpace(r.Header.Get(internalTokenHeader))
		if cfg.InternalToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.InternalToken)) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid internal token"))
			return
		}

		var body resendConfirmationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.SendOrderConfirmation(r.Context(), body.OrderID, strings.TrimSpace(body.PaymentID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}
