package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry. ID is the legacy numeric identifier kept for
// backwards-compatible lookups; DocumentID is the stable identifier new
// clients should prefer.
type Product struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentID      uuid.UUID `gorm:"column:document_id;type:uuid;uniqueIndex;not null"`
	Slug            string    `gorm:"column:slug;uniqueIndex;not null"`
	Title           string    `gorm:"column:title;not null"`
	Description     string    `gorm:"column:description"`
	PriceCents      int       `gorm:"column:price_cents;not null"`
	DiscountPercent int       `gorm:"column:discount_percent;not null;default:0"`
	// Stock is nil when the product is not stock-tracked (unlimited).
	Stock     *int      `gorm:"column:stock"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.DocumentID == uuid.Nil {
		p.DocumentID = uuid.New()
	}
	return nil
}
