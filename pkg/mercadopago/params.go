package mercadopago

import (
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

// PreferenceParams describes the single checkout item sent to MercadoPago.
// The storefront collapses the whole order into one line so the amount the
// buyer approves is exactly the stored order total.
type PreferenceParams struct {
	Title             string
	Quantity          int
	UnitPriceCents    int
	Currency          string
	ExternalReference string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
}

// Preference is the subset of the provider response the checkout flow needs.
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// Payment is the normalized payment lookup result.
type Payment struct {
	ID                     int64
	Status                 string
	StatusDetail           string
	ExternalReference      string
	TransactionAmountCents int
}

// MerchantOrder groups the payments MercadoPago attached to an order.
type MerchantOrder struct {
	ID                int64
	ExternalReference string
	Payments          []MerchantOrderPayment
}

// MerchantOrderPayment is a payment attempt inside a merchant order.
type MerchantOrderPayment struct {
	ID     int64
	Status string
}

func (p PreferenceParams) toRequest() preference.Request {
	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      p.Title,
				Quantity:   p.Quantity,
				UnitPrice:  centsToAmount(p.UnitPriceCents),
				CurrencyID: p.Currency,
			},
		},
		ExternalReference: p.ExternalReference,
		NotificationURL:   p.NotificationURL,
	}
	if p.SuccessURL != "" || p.FailureURL != "" || p.PendingURL != "" {
		req.BackURLs = &preference.BackURLsRequest{
			Success: p.SuccessURL,
			Failure: p.FailureURL,
			Pending: p.PendingURL,
		}
	}
	return req
}

func centsToAmount(cents int) float64 {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).InexactFloat64()
}

func amountToCents(amount float64) int {
	return int(decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
