package checkout

import (
	"github.com/google/uuid"
)

// ItemInput is a requested purchase line. Quantities are clamped nowhere at
// this layer; the quote reports exactly what was asked for.
type ItemInput struct {
	Slug string `json:"slug" validate:"required"`
	Qty  int    `json:"qty" validate:"required,min=1,max=99"`
}

// QuoteRequest asks for authoritative server-side pricing.
type QuoteRequest struct {
	Items  []ItemInput `json:"items" validate:"required,min=1,dive"`
	Coupon string      `json:"coupon,omitempty"`
}

// QuoteLine is a priced line in a quote.
type QuoteLine struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	Qty                int    `json:"qty"`
	UnitPriceCents     int    `json:"unit_price_cents"`
	OriginalPriceCents int    `json:"original_price_cents"`
	DiscountPercent    int    `json:"discount_percent"`
	LineTotalCents     int    `json:"line_total_cents"`
}

// AppliedPromotion describes a discount applied on top of line pricing.
type AppliedPromotion struct {
	Code          string `json:"code"`
	Description   string `json:"description,omitempty"`
	DiscountCents int    `json:"discount_cents"`
}

// Quote is the authoritative pricing breakdown. Clients display it; the
// server recomputes it again at order creation and trusts only its own copy.
type Quote struct {
	Items             []QuoteLine        `json:"items"`
	SubtotalCents     int                `json:"subtotal_cents"`
	DiscountCents     int                `json:"discount_cents"`
	TotalCents        int                `json:"total_cents"`
	Currency          string             `json:"currency"`
	AppliedPromotions []AppliedPromotion `json:"applied_promotions"`
}

// ContactInput carries the buyer contact details.
type ContactInput struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// ShippingInput carries the delivery address.
type ShippingInput struct {
	Street     string  `json:"street" validate:"required"`
	Number     string  `json:"number" validate:"required"`
	City       string  `json:"city" validate:"required"`
	Province   string  `json:"province" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Notes      *string `json:"notes,omitempty"`
}

// CreateOrderRequest submits a checkout.
type CreateOrderRequest struct {
	Items    []ItemInput   `json:"items" validate:"required,min=1,dive"`
	Coupon   string        `json:"coupon,omitempty"`
	Contact  ContactInput  `json:"contact" validate:"required"`
	Shipping ShippingInput `json:"shipping" validate:"required"`
}

// CreateOrderResponse returns the identifiers the client needs to start
// payment and poll order state.
type CreateOrderResponse struct {
	OrderID           int64     `json:"order_id"`
	DocumentID        uuid.UUID `json:"document_id"`
	OrderNumber       int64     `json:"order_number"`
	ExternalReference string    `json:"external_reference"`
	TotalCents        int       `json:"total_cents"`
	Currency          string    `json:"currency"`
}
