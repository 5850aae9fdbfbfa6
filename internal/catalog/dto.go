package catalog

import (
	"github.com/google/uuid"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

// ProductView is the public catalog shape returned to storefront clients.
type ProductView struct {
	ID              int64     `json:"id"`
	DocumentID      uuid.UUID `json:"document_id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int       `json:"price_cents"`
	FinalPriceCents int       `json:"final_price_cents"`
	DiscountPercent int       `json:"discount_percent"`
	Stock           *int      `json:"stock,omitempty"`
	Active          bool      `json:"active"`
}

// ProductListResponse is a cursor page of catalog entries.
type ProductListResponse struct {
	Products   []ProductView `json:"products"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ViewFromModel projects a product model into its public shape.
func ViewFromModel(p models.Product) ProductView {
	return ProductView{
		ID:              p.ID,
		DocumentID:      p.DocumentID,
		Slug:            p.Slug,
		Title:           p.Title,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		FinalPriceCents: FinalUnitPriceCents(p.PriceCents, p.DiscountPercent),
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Active:          p.Active,
	}
}
