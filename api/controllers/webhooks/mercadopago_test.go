package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mpwebhook "github.com/martinquesada/tienda-backend/internal/webhooks/mercadopago"
)

type stubProcessor struct {
	got []mpwebhook.Notification
	err error
}

func (s *stubProcessor) Process(_ context.Context, notification mpwebhook.Notification) error {
	s.got = append(s.got, notification)
	return s.err
}

func TestMercadoPagoWebhookProcessesQueryNotification(t *testing.T) {
	svc := &stubProcessor{}
	handler := MercadoPagoWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago?topic=payment&id=555", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.got) != 1 || svc.got[0].Topic != mpwebhook.TopicPayment || svc.got[0].ID != 555 {
		t.Fatalf("unexpected notifications %+v", svc.got)
	}
}

func TestMercadoPagoWebhookProcessesBodyNotification(t *testing.T) {
	svc := &stubProcessor{}
	handler := MercadoPagoWebhook(svc, nil)

	body := `{"type":"payment.updated","data":{"id":"789"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.got) != 1 || svc.got[0].ID != 789 {
		t.Fatalf("unexpected notifications %+v", svc.got)
	}
}

func TestMercadoPagoWebhookAcknowledgesGarbage(t *testing.T) {
	svc := &stubProcessor{}
	handler := MercadoPagoWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago?topic=subscription", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("garbage must still ack with 200, got %d", resp.Code)
	}
	if len(svc.got) != 0 {
		t.Fatalf("garbage must not reach the service")
	}
}

func TestMercadoPagoWebhookAcknowledgesProcessingFailure(t *testing.T) {
	svc := &stubProcessor{err: fmt.Errorf("provider unavailable")}
	handler := MercadoPagoWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago?topic=payment&id=555", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("processing failure must still ack with 200, got %d", resp.Code)
	}
}
