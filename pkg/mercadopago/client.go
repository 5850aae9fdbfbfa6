package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/merchantorder"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/martinquesada/tienda-backend/pkg/config"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errInvalidMPEnv        = fmt.Errorf("mercadopago environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

// Client exposes MercadoPago primitives with centralized auth, logging, and error mapping.
type Client struct {
	preferences    preference.Client
	payments       payment.Client
	merchantOrders merchantorder.Client
	environment    string
	logger         *logger.Logger
}

// NewClient initializes the MercadoPago wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("initializing mercadopago sdk: %w", err)
	}

	c := &Client{
		preferences:    preference.NewClient(sdkCfg),
		payments:       payment.NewClient(sdkCfg),
		merchantOrders: merchantorder.NewClient(sdkCfg),
		environment:    env,
		logger:         logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// Environment reports the normalized MercadoPago environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreatePreference registers a checkout preference and returns its redirect URLs.
func (c *Client) CreatePreference(ctx context.Context, params PreferenceParams) (*Preference, error) {
	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": params.ExternalReference,
		"quantity":           params.Quantity,
		"amount_cents":       params.UnitPriceCents,
	})

	resp, err := c.preferences.Create(ctx, params.toRequest())
	if err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create preference")
	}

	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": resp.ID})
	return &Preference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

// GetPayment fetches a payment by its numeric provider ID.
func (c *Client) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.payments.Get(ctx, int(paymentID))
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get payment")
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": resp.ID,
		"status":     resp.Status,
	})
	return &Payment{
		ID:                     int64(resp.ID),
		Status:                 resp.Status,
		StatusDetail:           resp.StatusDetail,
		ExternalReference:      resp.ExternalReference,
		TransactionAmountCents: amountToCents(resp.TransactionAmount),
	}, nil
}

// GetMerchantOrder fetches a merchant order and its attached payments.
func (c *Client) GetMerchantOrder(ctx context.Context, merchantOrderID int64) (*MerchantOrder, error) {
	c.log(ctx, "request", "get_merchant_order", map[string]any{"merchant_order_id": merchantOrderID})

	resp, err := c.merchantOrders.Get(ctx, int(merchantOrderID))
	if err != nil {
		c.log(ctx, "error", "get_merchant_order", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get merchant order")
	}

	order := &MerchantOrder{
		ID:                int64(resp.ID),
		ExternalReference: resp.ExternalReference,
	}
	for _, p := range resp.Payments {
		order.Payments = append(order.Payments, MerchantOrderPayment{
			ID:     int64(p.ID),
			Status: p.Status,
		})
	}

	c.log(ctx, "response", "get_merchant_order", map[string]any{
		"merchant_order_id": order.ID,
		"payments":          len(order.Payments),
	})
	return order, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

// mapError classifies provider failures by the status embedded in the SDK
// error text. The SDK keeps its response error type internal, so string
// inspection is the only portable signal.
func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	code := pkgerrors.CodeDependency
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "status 401", "status code: 401", "unauthorized"):
		code = pkgerrors.CodeUnauthorized
	case containsAny(msg, "status 403", "status code: 403", "forbidden"):
		code = pkgerrors.CodeForbidden
	case containsAny(msg, "status 404", "status code: 404", "not found"):
		code = pkgerrors.CodeNotFound
	case containsAny(msg, "status 429", "status code: 429", "too many requests"):
		code = pkgerrors.CodeRateLimit
	case containsAny(msg, "status 400", "status code: 400", "bad request"):
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.Wrap(code, err, fmt.Sprintf("mercadopago %s failed", op))
}

func containsAny(value string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(value, sub) {
			return true
		}
	}
	return false
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMPEnv
	}
}
