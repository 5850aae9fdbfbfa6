package emails

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/invoices"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/mail"
)

type fakeOrdersRepo struct {
	orders.Repository
	order *models.Order
}

func (f *fakeOrdersRepo) FindByID(_ context.Context, id int64) (*models.Order, error) {
	if f.order != nil && f.order.ID == id {
		return f.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeInvoicesRepo struct {
	invoices.Repository
	invoice *models.Invoice
}

func (f *fakeInvoicesRepo) FindByOrderID(_ context.Context, orderID int64) (*models.Invoice, error) {
	if f.invoice != nil && f.invoice.OrderID == orderID {
		return f.invoice, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeStore struct {
	files map[string][]byte
}

func (f *fakeStore) Read(_ context.Context, key string) ([]byte, error) {
	if data, ok := f.files[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found")
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeSender) Enabled() bool { return true }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

func paidOrder() *models.Order {
	return &models.Order{
		ID:           7,
		OrderNumber:  1042,
		CustomerName: "Juana Pérez",
		Email:        "juana@example.com",
		TotalCents:   21500,
		Currency:     enums.CurrencyARS,
		Status:       enums.OrderStatusPaid,
		ShippingText: "Av. Corrientes 1234, Buenos Aires",
	}
}

type fixture struct {
	svc    Service
	sender *fakeSender
}

func newFixture(t *testing.T, order *models.Order, invoice *models.Invoice, files map[string][]byte) *fixture {
	t.Helper()
	sender := &fakeSender{}
	svc, err := NewService(ServiceParams{
		Orders:   &fakeOrdersRepo{order: order},
		Invoices: &fakeInvoicesRepo{invoice: invoice},
		Store:    &fakeStore{files: files},
		Sender:   sender,
		Config: config.MailConfig{
			DedupeWindow:    10 * time.Minute,
			AttachInvoices:  true,
			InvoiceLinkBase: "https://api.tienda.example/api/v1/invoices",
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, sender: sender}
}

func TestSendOrderConfirmationAttachesInvoice(t *testing.T) {
	invoice := &models.Invoice{OrderID: 7, Number: "FAC-20260829-001042", FileKey: "FAC-20260829-001042.pdf"}
	fx := newFixture(t, paidOrder(), invoice, map[string][]byte{
		"FAC-20260829-001042.pdf": []byte("%PDF-fake"),
	})

	outcome, err := fx.svc.SendOrderConfirmation(context.Background(), 7, "555")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !outcome.Sent || outcome.MessageID == "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	msg := fx.sender.sent[0]
	if msg.To[0] != "juana@example.com" {
		t.Fatalf("wrong recipient %v", msg.To)
	}
	if msg.IdempotencyKey != "order-confirmation-1042-555" {
		t.Fatalf("wrong idempotency key %q", msg.IdempotencyKey)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "FAC-20260829-001042.pdf" {
		t.Fatalf("attachment missing: %+v", msg.Attachments)
	}
	if !strings.Contains(msg.HTML, "#1042") {
		t.Fatalf("body missing order number: %s", msg.HTML)
	}
}

func TestSendOrderConfirmationFallsBackToLink(t *testing.T) {
	invoice := &models.Invoice{OrderID: 7, Number: "FAC-20260829-001042", FileKey: "missing.pdf"}
	fx := newFixture(t, paidOrder(), invoice, nil)

	outcome, err := fx.svc.SendOrderConfirmation(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !outcome.Sent {
		t.Fatalf("expected sent outcome")
	}

	msg := fx.sender.sent[0]
	if len(msg.Attachments) != 0 {
		t.Fatalf("expected no attachment")
	}
	if !strings.Contains(msg.HTML, "FAC-20260829-001042/download") {
		t.Fatalf("body missing invoice link: %s", msg.HTML)
	}
}

func TestSendOrderConfirmationDedupesWithinWindow(t *testing.T) {
	fx := newFixture(t, paidOrder(), nil, nil)
	ctx := context.Background()

	first, err := fx.svc.SendOrderConfirmation(ctx, 7, "555")
	if err != nil || !first.Sent {
		t.Fatalf("first send: %v %+v", err, first)
	}
	second, err := fx.svc.SendOrderConfirmation(ctx, 7, "555")
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if !second.Deduped || second.Sent {
		t.Fatalf("expected deduped outcome, got %+v", second)
	}
	if len(fx.sender.sent) != 1 {
		t.Fatalf("expected single provider call, got %d", len(fx.sender.sent))
	}
}

func TestDedupeCachePrunesExpiredEntries(t *testing.T) {
	fx := newFixture(t, paidOrder(), nil, nil)
	svc := fx.svc.(*service)

	now := time.Now()
	svc.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		svc.markSent(fmt.Sprintf("order-confirmation-%d", i))
	}
	now = now.Add(11 * time.Minute)
	svc.markSent("order-confirmation-fresh")

	if got := len(svc.sentAt); got != 1 {
		t.Fatalf("expected expired entries pruned, cache holds %d", got)
	}
	if !svc.recentlySent("order-confirmation-fresh") {
		t.Fatalf("fresh entry lost during prune")
	}
}

func TestSendOrderConfirmationSwallowsRateLimit(t *testing.T) {
	fx := newFixture(t, paidOrder(), nil, nil)
	fx.sender.err = pkgerrors.New(pkgerrors.CodeRateLimit, "mail provider rate limited")

	outcome, err := fx.svc.SendOrderConfirmation(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("expected accepted outcome, got %v", err)
	}
	if outcome.Sent || outcome.Deduped {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestSendOrderConfirmationDisabledMail(t *testing.T) {
	fx := newFixture(t, paidOrder(), nil, nil)
	fx.sender.err = mail.ErrDisabled

	outcome, err := fx.svc.SendOrderConfirmation(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("disabled mail must not error: %v", err)
	}
	if outcome.Sent {
		t.Fatalf("unexpected sent outcome")
	}
}

func TestSendOrderConfirmationUnknownOrder(t *testing.T) {
	fx := newFixture(t, paidOrder(), nil, nil)

	_, err := fx.svc.SendOrderConfirmation(context.Background(), 99, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
