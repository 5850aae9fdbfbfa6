package mercadopago

import (
	"context"
	"errors"
	"testing"

	"github.com/mercadopago/sdk-go/pkg/merchantorder"

	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
)

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("card_token", "abc123"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	// Non-sensitive keys should be preserved.
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != sandboxEnv {
		t.Fatalf("expected default sandbox, got %q err=%v", env, err)
	}
	if env, err := normalizeEnv(" Production "); err != nil || env != productionEnv {
		t.Fatalf("expected production, got %q err=%v", env, err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatalf("expected error for unknown environment")
	}
}

func TestMapError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		err      error
		wantCode pkgerrors.Code
	}{
		{
			name:     "unauthorized",
			err:      errors.New("request failed with status code: 401"),
			wantCode: pkgerrors.CodeUnauthorized,
		},
		{
			name:     "not found",
			err:      errors.New("payment not found, status code: 404"),
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name:     "rate limited",
			err:      errors.New("too many requests"),
			wantCode: pkgerrors.CodeRateLimit,
		},
		{
			name:     "bad request",
			err:      errors.New("status code: 400 invalid back_urls"),
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "network failure",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: pkgerrors.CodeDependency,
		},
	}
	for _, tt := range table {
		mapped := c.mapError(tt.err, "operation")
		if mapped == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		typed := pkgerrors.As(mapped)
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
	}
}

func TestCentsConversionRoundTrip(t *testing.T) {
	cases := []int{0, 1, 99, 100, 12345, 9999999}
	for _, cents := range cases {
		amount := centsToAmount(cents)
		if got := amountToCents(amount); got != cents {
			t.Fatalf("round trip %d -> %f -> %d", cents, amount, got)
		}
	}
}

type stubMerchantOrders struct {
	gotID int
	resp  *merchantorder.Response
	err   error
}

func (s *stubMerchantOrders) Get(_ context.Context, id int) (*merchantorder.Response, error) {
	s.gotID = id
	return s.resp, s.err
}

func (s *stubMerchantOrders) Search(context.Context, merchantorder.SearchRequest) (*merchantorder.SearchResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMerchantOrders) Update(context.Context, int, merchantorder.UpdateRequest) (*merchantorder.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMerchantOrders) Create(context.Context, merchantorder.Request) (*merchantorder.Response, error) {
	return nil, errors.New("not implemented")
}

// The SDK speaks int ids while the rest of the service carries int64; the
// wrapper owns the conversion at both edges.
func TestGetMerchantOrderMapsSDKResponse(t *testing.T) {
	stub := &stubMerchantOrders{
		resp: &merchantorder.Response{
			ID:                88,
			ExternalReference: "ref-abc",
			Payments: []merchantorder.PaymentResponse{
				{ID: 555, Status: "approved"},
				{ID: 556, Status: "rejected"},
			},
		},
	}
	c := &Client{merchantOrders: stub}

	order, err := c.GetMerchantOrder(context.Background(), 4242)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.gotID != 4242 {
		t.Fatalf("expected sdk lookup by 4242, got %d", stub.gotID)
	}
	if order.ID != 88 || order.ExternalReference != "ref-abc" {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(order.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(order.Payments))
	}
	if order.Payments[0].ID != 555 || order.Payments[0].Status != "approved" {
		t.Fatalf("unexpected payment %+v", order.Payments[0])
	}
}

func TestGetMerchantOrderMapsProviderError(t *testing.T) {
	stub := &stubMerchantOrders{err: errors.New("merchant order not found, status code: 404")}
	c := &Client{merchantOrders: stub}

	_, err := c.GetMerchantOrder(context.Background(), 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestPreferenceParamsToRequest(t *testing.T) {
	params := PreferenceParams{
		Title:             "Pedido #1042",
		Quantity:          1,
		UnitPriceCents:    459900,
		Currency:          "ARS",
		ExternalReference: "ref-abc",
		SuccessURL:        "https://store.example/checkout/success",
		FailureURL:        "https://store.example/checkout/failure",
		NotificationURL:   "https://api.example/api/v1/webhooks/mercadopago",
	}

	req := params.toRequest()
	if len(req.Items) != 1 {
		t.Fatalf("expected a single item, got %d", len(req.Items))
	}
	item := req.Items[0]
	if item.Title != params.Title || item.Quantity != 1 {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.UnitPrice != 4599.0 {
		t.Fatalf("expected unit price 4599.0, got %f", item.UnitPrice)
	}
	if req.ExternalReference != "ref-abc" {
		t.Fatalf("unexpected external reference %q", req.ExternalReference)
	}
	if req.BackURLs == nil || req.BackURLs.Success != params.SuccessURL {
		t.Fatalf("back urls not propagated: %+v", req.BackURLs)
	}
}
