package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon applies either a percentage or a fixed amount off the cart subtotal.
type Coupon struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code           string     `gorm:"column:code;uniqueIndex;not null"`
	Description    string     `gorm:"column:description"`
	PercentOff     *int       `gorm:"column:percent_off"`
	AmountOffCents *int       `gorm:"column:amount_off_cents"`
	Active         bool       `gorm:"column:active;not null;default:true"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
