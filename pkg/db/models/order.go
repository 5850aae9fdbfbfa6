package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/enums"
	"github.com/martinquesada/tienda-backend/pkg/types"
)

// Order is the storefront order. Created once at checkout submission; after
// that only the payment webhook mutates it. Never deleted.
type Order struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentID  uuid.UUID `gorm:"column:document_id;type:uuid;uniqueIndex;not null"`
	OrderNumber int64     `gorm:"column:order_number;uniqueIndex"`

	CustomerName    string                `gorm:"column:customer_name;not null"`
	Email           string                `gorm:"column:email;not null"`
	Phone           string                `gorm:"column:phone"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ShippingText    string                `gorm:"column:shipping_text"`

	SubtotalCents int            `gorm:"column:subtotal_cents;not null"`
	DiscountCents int            `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int            `gorm:"column:total_cents;not null"`
	Currency      enums.Currency `gorm:"column:currency;type:text;not null;default:'ARS'"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	// ExternalReference is the client-correlated opaque token threading the
	// order through preference creation and webhook lookup.
	ExternalReference   string  `gorm:"column:external_reference;uniqueIndex;not null"`
	PreferenceID        *string `gorm:"column:preference_id"`
	PaymentID           *string `gorm:"column:payment_id"`
	PaymentStatus       *string `gorm:"column:payment_status"`
	PaymentStatusDetail *string `gorm:"column:payment_status_detail"`
	MerchantOrderID     *string `gorm:"column:merchant_order_id"`

	UserID *uuid.UUID `gorm:"column:user_id;type:uuid"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate mints the document id application-side so sqlite and postgres
// behave the same; the postgres schema keeps gen_random_uuid() as a backstop.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.DocumentID == uuid.Nil {
		o.DocumentID = uuid.New()
	}
	return nil
}
