package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/enums"
)

// Invoice is created lazily when an order transitions into paid. At most one
// row exists per generated number; rows are never updated or deleted.
type Invoice struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Number      string         `gorm:"column:number;uniqueIndex;not null"`
	OrderID     int64          `gorm:"column:order_id;not null;index"`
	OrderNumber int64          `gorm:"column:order_number;not null"`
	TotalCents  int            `gorm:"column:total_cents;not null"`
	Currency    enums.Currency `gorm:"column:currency;type:text;not null;default:'ARS'"`
	FileKey     string         `gorm:"column:file_key;not null"`
	IssuedAt    time.Time      `gorm:"column:issued_at;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
