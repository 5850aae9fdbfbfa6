package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLineItem snapshots a product at purchase time. Unit price carries the
// discounted value actually charged; the original price and discount percent
// are kept for the invoice.
type OrderLineItem struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            int64      `gorm:"column:order_id;not null;index"`
	ProductID          *int64     `gorm:"column:product_id"`
	ProductDocumentID  *uuid.UUID `gorm:"column:product_document_id;type:uuid"`
	Slug               string     `gorm:"column:slug;not null"`
	Title              string     `gorm:"column:title;not null"`
	Qty                int        `gorm:"column:qty;not null"`
	UnitPriceCents     int        `gorm:"column:unit_price_cents;not null"`
	OriginalPriceCents int        `gorm:"column:original_price_cents;not null"`
	DiscountPercent    int        `gorm:"column:discount_percent;not null;default:0"`
	LineTotalCents     int        `gorm:"column:line_total_cents;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (li *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}
