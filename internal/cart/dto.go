package cart

// Adjustment reasons reported when the cart is reconciled against the catalog.
const (
	AdjustmentStockClamped       = "stock_clamped"
	AdjustmentRemovedUnavailable = "removed_unavailable"
)

// LineView is a cart line enriched with current catalog pricing.
type LineView struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	Qty                int    `json:"qty"`
	UnitPriceCents     int    `json:"unit_price_cents"`
	OriginalPriceCents int    `json:"original_price_cents"`
	DiscountPercent    int    `json:"discount_percent"`
	LineTotalCents     int    `json:"line_total_cents"`
	Stock              *int   `json:"stock,omitempty"`
}

// Adjustment records a change the reconciler applied to a cart line.
type Adjustment struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// View is the cart as returned to clients: current lines, totals, and any
// adjustments applied during reconciliation.
type View struct {
	Items         []LineView   `json:"items"`
	SubtotalCents int          `json:"subtotal_cents"`
	Currency      string       `json:"currency"`
	Adjustments   []Adjustment `json:"adjustments,omitempty"`
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	Slug string `json:"slug" validate:"required"`
	Qty  int    `json:"qty" validate:"omitempty,min=1,max=99"`
}

// UpdateItemRequest sets the absolute quantity for a cart line.
type UpdateItemRequest struct {
	Qty int `json:"qty" validate:"min=0,max=99"`
}
