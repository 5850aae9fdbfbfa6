package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/types"
)

// txRunner is satisfied by the db client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes checkout pricing and order creation.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest, userID *uuid.UUID) (*CreateOrderResponse, error)
}

// ServiceParams lists checkout dependencies.
type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Coupons  CouponRepository
	Catalog  catalog.Service
	Currency string
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	coupons  CouponRepository
	catalog  catalog.Service
	currency string
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if strings.TrimSpace(params.Currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		tx:       params.Tx,
		orders:   params.Orders,
		coupons:  params.Coupons,
		catalog:  params.Catalog,
		currency: params.Currency,
		now:      time.Now,
	}, nil
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	quote, _, err := s.computeQuote(ctx, req.Items, req.Coupon)
	return quote, err
}

// CreateOrder recomputes the quote server-side and persists the order in a
// single transaction. The client-submitted totals are never consulted.
func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest, userID *uuid.UUID) (*CreateOrderResponse, error) {
	if err := validateContact(req.Contact); err != nil {
		return nil, err
	}

	quote, snapshot, err := s.computeQuote(ctx, req.Items, req.Coupon)
	if err != nil {
		return nil, err
	}

	address := types.ShippingAddress{
		Street:     strings.TrimSpace(req.Shipping.Street),
		Number:     strings.TrimSpace(req.Shipping.Number),
		City:       strings.TrimSpace(req.Shipping.City),
		Province:   strings.TrimSpace(req.Shipping.Province),
		PostalCode: strings.TrimSpace(req.Shipping.PostalCode),
		Notes:      req.Shipping.Notes,
	}

	order := &models.Order{
		DocumentID:        uuid.New(),
		CustomerName:      strings.TrimSpace(req.Contact.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Contact.Email)),
		Phone:             strings.TrimSpace(req.Contact.Phone),
		ShippingAddress:   address,
		ShippingText:      address.DisplayText(),
		SubtotalCents:     quote.SubtotalCents,
		DiscountCents:     quote.DiscountCents,
		TotalCents:        quote.TotalCents,
		Currency:          enums.Currency(quote.Currency),
		Status:            enums.OrderStatusPending,
		ExternalReference: uuid.NewString(),
		UserID:            userID,
	}
	for _, line := range quote.Items {
		item := models.OrderLineItem{
			Slug:               line.Slug,
			Title:              line.Title,
			Qty:                line.Qty,
			UnitPriceCents:     line.UnitPriceCents,
			OriginalPriceCents: line.OriginalPriceCents,
			DiscountPercent:    line.DiscountPercent,
			LineTotalCents:     line.LineTotalCents,
		}
		if info, ok := snapshot[line.Slug]; ok {
			productID := info.ProductID
			item.ProductID = &productID
			if docID, err := uuid.Parse(info.DocumentID); err == nil {
				item.ProductDocumentID = &docID
			}
		}
		order.Items = append(order.Items, item)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		number, err := repo.AssignOrderNumber(ctx, order.ID)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	return &CreateOrderResponse{
		OrderID:           order.ID,
		DocumentID:        order.DocumentID,
		OrderNumber:       order.OrderNumber,
		ExternalReference: order.ExternalReference,
		TotalCents:        order.TotalCents,
		Currency:          string(order.Currency),
	}, nil
}

func (s *service) computeQuote(ctx context.Context, items []ItemInput, couponCode string) (*Quote, map[string]catalog.StockInfo, error) {
	merged, err := mergeItems(items)
	if err != nil {
		return nil, nil, err
	}

	slugs := make([]string, 0, len(merged))
	for _, item := range merged {
		slugs = append(slugs, item.Slug)
	}
	snapshot, err := s.catalog.Snapshot(ctx, slugs)
	if err != nil {
		return nil, nil, err
	}

	quote := &Quote{
		Items:             make([]QuoteLine, 0, len(merged)),
		Currency:          s.currency,
		AppliedPromotions: []AppliedPromotion{},
	}
	var unavailable []string
	for _, item := range merged {
		info, ok := snapshot[item.Slug]
		if !ok || !info.Active {
			unavailable = append(unavailable, item.Slug)
			continue
		}
		unit := catalog.FinalUnitPriceCents(info.PriceCents, info.DiscountPercent)
		line := QuoteLine{
			Slug:               item.Slug,
			Title:              info.Title,
			Qty:                item.Qty,
			UnitPriceCents:     unit,
			OriginalPriceCents: info.PriceCents,
			DiscountPercent:    info.DiscountPercent,
			LineTotalCents:     unit * item.Qty,
		}
		quote.Items = append(quote.Items, line)
		quote.SubtotalCents += line.LineTotalCents
	}
	if len(unavailable) > 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "some products are not available").
			WithDetails(map[string]any{"unavailable": unavailable})
	}

	if code := strings.TrimSpace(couponCode); code != "" {
		promo, err := s.applyCoupon(ctx, code, quote.SubtotalCents)
		if err != nil {
			return nil, nil, err
		}
		quote.DiscountCents = promo.DiscountCents
		quote.AppliedPromotions = append(quote.AppliedPromotions, *promo)
	}

	quote.TotalCents = quote.SubtotalCents - quote.DiscountCents
	if quote.TotalCents < 0 {
		quote.TotalCents = 0
	}
	return quote, snapshot, nil
}

func (s *service) applyCoupon(ctx context.Context, code string, subtotalCents int) (*AppliedPromotion, error) {
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon expired")
	}

	discount := couponDiscountCents(coupon, subtotalCents)
	return &AppliedPromotion{
		Code:          coupon.Code,
		Description:   coupon.Description,
		DiscountCents: discount,
	}, nil
}

// couponDiscountCents rounds percentage discounts half-up and never exceeds
// the subtotal.
func couponDiscountCents(coupon *models.Coupon, subtotalCents int) int {
	discount := 0
	switch {
	case coupon.PercentOff != nil && *coupon.PercentOff > 0:
		discount = int(decimal.NewFromInt(int64(subtotalCents)).
			Mul(decimal.NewFromInt(int64(*coupon.PercentOff))).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart())
	case coupon.AmountOffCents != nil && *coupon.AmountOffCents > 0:
		discount = *coupon.AmountOffCents
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	return discount
}

// mergeItems collapses duplicate slugs so a line never appears twice.
func mergeItems(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	merged := make([]ItemInput, 0, len(items))
	index := map[string]int{}
	for _, item := range items {
		slug := strings.TrimSpace(item.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item slug required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if idx, ok := index[slug]; ok {
			merged[idx].Qty += item.Qty
			continue
		}
		index[slug] = len(merged)
		merged = append(merged, ItemInput{Slug: slug, Qty: item.Qty})
	}
	return merged, nil
}

func validateContact(contact ContactInput) error {
	if strings.TrimSpace(contact.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name required")
	}
	email := strings.TrimSpace(contact.Email)
	if email == "" || !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid contact email required")
	}
	return nil
}
