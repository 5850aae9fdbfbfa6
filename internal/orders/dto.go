package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
)

// LineItemView is an order line as returned to clients.
type LineItemView struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	Qty                int    `json:"qty"`
	UnitPriceCents     int    `json:"unit_price_cents"`
	OriginalPriceCents int    `json:"original_price_cents"`
	DiscountPercent    int    `json:"discount_percent"`
	LineTotalCents     int    `json:"line_total_cents"`
}

// View is the public order shape. Raw provider identifiers stay internal;
// only the payment status surfaces.
type View struct {
	DocumentID        uuid.UUID         `json:"document_id"`
	OrderNumber       int64             `json:"order_number"`
	Status            enums.OrderStatus `json:"status"`
	CustomerName      string            `json:"customer_name"`
	Email             string            `json:"email"`
	ShippingText      string            `json:"shipping_text,omitempty"`
	SubtotalCents     int               `json:"subtotal_cents"`
	DiscountCents     int               `json:"discount_cents"`
	TotalCents        int               `json:"total_cents"`
	Currency          enums.Currency    `json:"currency"`
	PaymentStatus     *string           `json:"payment_status,omitempty"`
	ExternalReference string            `json:"external_reference"`
	Items             []LineItemView    `json:"items"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ViewFromModel projects an order model into its public shape.
func ViewFromModel(order *models.Order) *View {
	view := &View{
		DocumentID:        order.DocumentID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		CustomerName:      order.CustomerName,
		Email:             order.Email,
		ShippingText:      order.ShippingText,
		SubtotalCents:     order.SubtotalCents,
		DiscountCents:     order.DiscountCents,
		TotalCents:        order.TotalCents,
		Currency:          order.Currency,
		PaymentStatus:     order.PaymentStatus,
		ExternalReference: order.ExternalReference,
		Items:             make([]LineItemView, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, LineItemView{
			Slug:               item.Slug,
			Title:              item.Title,
			Qty:                item.Qty,
			UnitPriceCents:     item.UnitPriceCents,
			OriginalPriceCents: item.OriginalPriceCents,
			DiscountPercent:    item.DiscountPercent,
			LineTotalCents:     item.LineTotalCents,
		})
	}
	return view
}
