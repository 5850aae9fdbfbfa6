package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/martinquesada/tienda-backend/api/responses"
	mpwebhook "github.com/martinquesada/tienda-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// MercadoPagoWebhookService processes normalized provider notifications.
type MercadoPagoWebhookService interface {
	Process(ctx context.Context, notification mpwebhook.Notification) error
}

// MercadoPagoWebhook ingests provider notifications. It acknowledges with
// 200 even when parsing or processing fails: the provider retries on any
// other status, and a malformed or unknown notification never becomes valid.
func MercadoPagoWebhook(svc MercadoPagoWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		notification, err := mpwebhook.ParseNotification(r.URL.Query(), body)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "query", r.URL.RawQuery), "unparseable provider notification")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"topic":           notification.Topic,
				"notification_id": notification.ID,
			})
		}

		if err := svc.Process(ctx, *notification); err != nil {
			if logg != nil {
				logg.Error(ctx, "webhook processing failed", err)
			}
			responses.WriteSuccess(w, nil)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
