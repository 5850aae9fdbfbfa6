package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	emailsvc "github.com/martinquesada/tienda-backend/internal/emails"
	"github.com/martinquesada/tienda-backend/pkg/config"
)

type stubEmails struct {
	outcome      *emailsvc.Outcome
	err          error
	gotOrderID   int64
	gotPaymentID string
}

func (s *stubEmails) SendOrderConfirmation(_ context.Context, orderID int64, paymentID string) (*emailsvc.Outcome, error) {
	s.gotOrderID = orderID
	s.gotPaymentID = paymentID
	return s.outcome, s.err
}

func TestResendOrderConfirmationRequiresInternalToken(t *testing.T) {
	svc := &stubEmails{outcome: &emailsvc.Outcome{Sent: true}}
	handler := ResendOrderConfirmation(svc, config.MailConfig{InternalToken: "secreto"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/order-confirmation", strings.NewReader(`{"order_id":7}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if svc.gotOrderID != 0 {
		t.Fatalf("service must not run without the token")
	}
}

func TestResendOrderConfirmationRejectsWhenTokenUnset(t *testing.T) {
	svc := &stubEmails{outcome: &emailsvc.Outcome{Sent: true}}
	handler := ResendOrderConfirmation(svc, config.MailConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/order-confirmation", strings.NewReader(`{"order_id":7}`))
	req.Header.Set("X-Internal-Token", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("unset token must close the endpoint, got %d", resp.Code)
	}
}

func TestResendOrderConfirmationForwardsPayload(t *testing.T) {
	svc := &stubEmails{outcome: &emailsvc.Outcome{Sent: true, MessageID: "msg-1"}}
	handler := ResendOrderConfirmation(svc, config.MailConfig{InternalToken: "secreto"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/order-confirmation", strings.NewReader(`{"order_id":7,"payment_id":"555"}`))
	req.Header.Set("X-Internal-Token", "secreto")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotOrderID != 7 || svc.gotPaymentID != "555" {
		t.Fatalf("payload not forwarded: order=%d payment=%q", svc.gotOrderID, svc.gotPaymentID)
	}
}
