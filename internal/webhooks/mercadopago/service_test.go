package mercadopago

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	"github.com/martinquesada/tienda-backend/internal/emails"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/mercadopago"
)

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrdersRepo struct {
	orders.Repository
	order   *models.Order
	updates map[string]any
}

func (f *fakeOrdersRepo) WithTx(*gorm.DB) orders.Repository { return f }

func (f *fakeOrdersRepo) FindByExternalReferenceForUpdate(_ context.Context, ref string) (*models.Order, error) {
	if f.order != nil && f.order.ExternalReference == ref {
		return f.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) Update(_ context.Context, _ int64, updates map[string]any) error {
	f.updates = updates
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		f.order.Status = status
	}
	return nil
}

type stockCall struct {
	productID int64
	qty       int
}

type fakeCatalogRepo struct {
	catalog.Repository
	decrements []stockCall
}

func (f *fakeCatalogRepo) WithTx(*gorm.DB) catalog.Repository { return f }

func (f *fakeCatalogRepo) DecrementStock(_ context.Context, productID int64, qty int) (bool, error) {
	f.decrements = append(f.decrements, stockCall{productID: productID, qty: qty})
	return true, nil
}

type fakeProvider struct {
	payments       map[int64]*mercadopago.Payment
	merchantOrders map[int64]*mercadopago.MerchantOrder
}

func (f *fakeProvider) GetPayment(_ context.Context, id int64) (*mercadopago.Payment, error) {
	if payment, ok := f.payments[id]; ok {
		return payment, nil
	}
	return nil, fmt.Errorf("payment %d not found", id)
}

func (f *fakeProvider) GetMerchantOrder(_ context.Context, id int64) (*mercadopago.MerchantOrder, error) {
	if order, ok := f.merchantOrders[id]; ok {
		return order, nil
	}
	return nil, fmt.Errorf("merchant order %d not found", id)
}

type fakeInvoices struct {
	calls int
	err   error
}

func (f *fakeInvoices) GenerateForOrder(context.Context, int64) (*models.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Invoice{Number: "FAC-20260829-001042"}, nil
}

type fakeEmails struct {
	calls int
	err   error
}

func (f *fakeEmails) SendOrderConfirmation(context.Context, int64, string) (*emails.Outcome, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &emails.Outcome{Sent: true}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func pendingOrder() *models.Order {
	productID := int64(1)
	return &models.Order{
		ID:                7,
		OrderNumber:       1042,
		Status:            enums.OrderStatusPending,
		ExternalReference: "ref-abc",
		Items: []models.OrderLineItem{
			{ProductID: &productID, Slug: "mate", Qty: 2},
			{Slug: "digital", Qty: 1},
		},
	}
}

type fixture struct {
	svc      Service
	orders   *fakeOrdersRepo
	catalog  *fakeCatalogRepo
	invoices *fakeInvoices
	emails   *fakeEmails
}

func newFixture(t *testing.T, order *models.Order, provider *fakeProvider) *fixture {
	t.Helper()
	fx := &fixture{
		orders:   &fakeOrdersRepo{order: order},
		catalog:  &fakeCatalogRepo{},
		invoices: &fakeInvoices{},
		emails:   &fakeEmails{},
	}
	svc, err := NewService(ServiceParams{
		Tx:       fakeTx{},
		Orders:   fx.orders,
		Catalog:  fx.catalog,
		Provider: provider,
		Invoices: fx.invoices,
		Emails:   fx.emails,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fx.svc = svc
	return fx
}

func approvedProvider() *fakeProvider {
	return &fakeProvider{
		payments: map[int64]*mercadopago.Payment{
			555: {ID: 555, Status: "approved", StatusDetail: "accredited", ExternalReference: "ref-abc"},
		},
	}
}

func TestProcessApprovedPaymentFiresPaidEdge(t *testing.T) {
	fx := newFixture(t, pendingOrder(), approvedProvider())

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicPayment, ID: 555}); err != nil {
		t.Fatalf("process: %v", err)
	}

	if fx.orders.order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", fx.orders.order.Status)
	}
	if fx.orders.updates["payment_id"] != "555" || fx.orders.updates["payment_status"] != "approved" {
		t.Fatalf("provider fields not stored: %v", fx.orders.updates)
	}
	if fx.invoices.calls != 1 || fx.emails.calls != 1 {
		t.Fatalf("side effects: invoices=%d emails=%d", fx.invoices.calls, fx.emails.calls)
	}
	// Only the stock-tracked line decrements.
	if len(fx.catalog.decrements) != 1 || fx.catalog.decrements[0] != (stockCall{productID: 1, qty: 2}) {
		t.Fatalf("unexpected stock calls %v", fx.catalog.decrements)
	}
}

func TestProcessDuplicateApprovedIsIdempotent(t *testing.T) {
	fx := newFixture(t, pendingOrder(), approvedProvider())
	ctx := context.Background()
	notification := Notification{Topic: TopicPayment, ID: 555}

	if err := fx.svc.Process(ctx, notification); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if err := fx.svc.Process(ctx, notification); err != nil {
		t.Fatalf("second process: %v", err)
	}

	if fx.invoices.calls != 1 || fx.emails.calls != 1 {
		t.Fatalf("duplicate delivery repeated side effects: invoices=%d emails=%d", fx.invoices.calls, fx.emails.calls)
	}
	if len(fx.catalog.decrements) != 1 {
		t.Fatalf("duplicate delivery repeated stock decrement")
	}
}

func TestProcessNeverDowngradesPaid(t *testing.T) {
	order := pendingOrder()
	order.Status = enums.OrderStatusPaid
	provider := &fakeProvider{
		payments: map[int64]*mercadopago.Payment{
			556: {ID: 556, Status: "rejected", ExternalReference: "ref-abc"},
		},
	}
	fx := newFixture(t, order, provider)

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicPayment, ID: 556}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if fx.orders.order.Status != enums.OrderStatusPaid {
		t.Fatalf("paid order downgraded to %s", fx.orders.order.Status)
	}
	if fx.invoices.calls != 0 {
		t.Fatalf("no side effects expected")
	}
}

func TestProcessRejectedPayment(t *testing.T) {
	provider := &fakeProvider{
		payments: map[int64]*mercadopago.Payment{
			556: {ID: 556, Status: "rejected", StatusDetail: "cc_rejected", ExternalReference: "ref-abc"},
		},
	}
	fx := newFixture(t, pendingOrder(), provider)

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicPayment, ID: 556}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if fx.orders.order.Status != enums.OrderStatusFailed {
		t.Fatalf("expected failed, got %s", fx.orders.order.Status)
	}
	if fx.invoices.calls != 0 || fx.emails.calls != 0 || len(fx.catalog.decrements) != 0 {
		t.Fatalf("rejected payment fired side effects")
	}
}

func TestProcessMerchantOrderResolvesApprovedPayment(t *testing.T) {
	provider := approvedProvider()
	provider.merchantOrders = map[int64]*mercadopago.MerchantOrder{
		42: {
			ID:                42,
			ExternalReference: "ref-abc",
			Payments: []mercadopago.MerchantOrderPayment{
				{ID: 554, Status: "rejected"},
				{ID: 555, Status: "approved"},
			},
		},
	}
	fx := newFixture(t, pendingOrder(), provider)

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicMerchantOrder, ID: 42}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if fx.orders.order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", fx.orders.order.Status)
	}
	if fx.orders.updates["merchant_order_id"] != "42" {
		t.Fatalf("merchant order id not stored: %v", fx.orders.updates)
	}
}

func TestProcessMerchantOrderWithoutPaymentsIsIgnored(t *testing.T) {
	provider := &fakeProvider{
		merchantOrders: map[int64]*mercadopago.MerchantOrder{
			42: {ID: 42, ExternalReference: "ref-abc"},
		},
	}
	fx := newFixture(t, pendingOrder(), provider)

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicMerchantOrder, ID: 42}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if fx.orders.updates != nil {
		t.Fatalf("order must not be touched")
	}
}

func TestProcessUnknownOrderReferenceIsSwallowed(t *testing.T) {
	provider := &fakeProvider{
		payments: map[int64]*mercadopago.Payment{
			555: {ID: 555, Status: "approved", ExternalReference: "ref-desconocida"},
		},
	}
	fx := newFixture(t, pendingOrder(), provider)

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicPayment, ID: 555}); err != nil {
		t.Fatalf("unknown order must not error: %v", err)
	}
}

func TestProcessSideEffectFailuresAreSwallowed(t *testing.T) {
	fx := newFixture(t, pendingOrder(), approvedProvider())
	fx.invoices.err = fmt.Errorf("renderer broken")
	fx.emails.err = fmt.Errorf("provider down")

	if err := fx.svc.Process(context.Background(), Notification{Topic: TopicPayment, ID: 555}); err != nil {
		t.Fatalf("side effect failures must not propagate: %v", err)
	}
	if fx.orders.order.Status != enums.OrderStatusPaid {
		t.Fatalf("status write must survive side effect failures")
	}
}
