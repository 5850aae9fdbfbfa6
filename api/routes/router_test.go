package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mpwebhook "github.com/martinquesada/tienda-backend/internal/webhooks/mercadopago"
	"github.com/martinquesada/tienda-backend/pkg/config"
)

type stubWebhookService struct {
	notifications []mpwebhook.Notification
}

func (s *stubWebhookService) Process(_ context.Context, notification mpwebhook.Notification) error {
	s.notifications = append(s.notifications, notification)
	return nil
}

func testRouter(webhooks mpwebhook.Service) http.Handler {
	return NewRouter(RouterParams{
		Config: &config.Config{
			App: config.AppConfig{Env: "test", Port: "8080"},
		},
		Webhooks: webhooks,
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Tienda-Env") != "test" {
		t.Fatalf("env header missing")
	}
}

func TestRouterWebhookIsMountedWithoutAuth(t *testing.T) {
	svc := &stubWebhookService{}
	router := testRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago?topic=payment&id=555", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.notifications) != 1 || svc.notifications[0].ID != 555 {
		t.Fatalf("notification not delivered: %+v", svc.notifications)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
