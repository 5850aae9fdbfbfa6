package emails

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/invoices"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/mail"
)

// mailSender is the slice of the mail client this service needs.
type mailSender interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
	Enabled() bool
}

type fileReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Outcome reports what happened to a confirmation request. Rate-limited and
// deduplicated sends are successful outcomes, not errors.
type Outcome struct {
	Sent      bool   `json:"sent"`
	Deduped   bool   `json:"deduped"`
	MessageID string `json:"message_id,omitempty"`
}

// Service sends order confirmation emails.
type Service interface {
	SendOrderConfirmation(ctx context.Context, orderID int64, paymentID string) (*Outcome, error)
}

// ServiceParams lists email service dependencies.
type ServiceParams struct {
	Orders   orders.Repository
	Invoices invoices.Repository
	Store    fileReader
	Sender   mailSender
	Config   config.MailConfig
	Logger   *logger.Logger
}

type service struct {
	orders   orders.Repository
	invoices invoices.Repository
	store    fileReader
	sender   mailSender
	cfg      config.MailConfig
	logger   *logger.Logger
	now      func() time.Time

	// sentAt is a best-effort in-process dedupe cache; the provider
	// idempotency key is the authoritative guard.
	mu     sync.Mutex
	sentAt map[string]time.Time
}

// NewService builds the emails service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("file store required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   params.Orders,
		invoices: params.Invoices,
		store:    params.Store,
		sender:   params.Sender,
		cfg:      params.Config,
		logger:   params.Logger,
		now:      time.Now,
		sentAt:   map[string]time.Time{},
	}, nil
}

// SendOrderConfirmation emails the buyer once per order. The invoice PDF is
// attached when available; any attachment failure downgrades to a download
// link rather than blocking the email.
func (s *service) SendOrderConfirmation(ctx context.Context, orderID int64, paymentID string) (*Outcome, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	key := dedupeKey(order.OrderNumber, paymentID)
	if s.recentlySent(key) {
		return &Outcome{Deduped: true}, nil
	}

	invoice, attachment := s.invoiceAttachment(ctx, order)

	msg := mail.Message{
		To:             []string{order.Email},
		Subject:        fmt.Sprintf("Confirmación de compra - Pedido #%d", order.OrderNumber),
		HTML:           s.renderBody(order, invoice, attachment == nil),
		IdempotencyKey: key,
	}
	if attachment != nil {
		msg.Attachments = []mail.Attachment{*attachment}
	}

	messageID, err := s.sender.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, mail.ErrDisabled) {
			s.logger.Warn(ctx, "confirmation email skipped: mail disabled")
			return &Outcome{}, nil
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeRateLimit {
			// The provider will not accept the message right now; treat it
			// as accepted so webhook processing never fails on mail volume.
			s.logger.Warn(ctx, "confirmation email rate limited")
			return &Outcome{}, nil
		}
		return nil, err
	}

	s.markSent(key)
	return &Outcome{Sent: true, MessageID: messageID}, nil
}

func (s *service) invoiceAttachment(ctx context.Context, order *models.Order) (*models.Invoice, *mail.Attachment) {
	invoice, err := s.invoices.FindByOrderID(ctx, order.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{"order_id": order.ID}),
				"invoice lookup failed, sending without attachment")
		}
		return nil, nil
	}
	if !s.cfg.AttachInvoices {
		return invoice, nil
	}
	data, err := s.store.Read(ctx, invoice.FileKey)
	if err != nil {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{"invoice": invoice.Number}),
			"invoice file unreadable, sending without attachment")
		return invoice, nil
	}
	return invoice, &mail.Attachment{
		Filename: invoice.Number + ".pdf",
		Content:  data,
	}
}

func (s *service) renderBody(order *models.Order, invoice *models.Invoice, withLink bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>¡Gracias por tu compra, %s!</h1>", html.EscapeString(order.CustomerName))
	fmt.Fprintf(&b, "<p>Tu pedido <strong>#%d</strong> fue confirmado.</p>", order.OrderNumber)
	fmt.Fprintf(&b, "<p>Total: %s %s</p>", order.Currency, formatAmount(order.TotalCents))
	if order.ShippingText != "" {
		fmt.Fprintf(&b, "<p>Envío a: %s</p>", html.EscapeString(order.ShippingText))
	}
	if invoice != nil && withLink && s.cfg.InvoiceLinkBase != "" {
		fmt.Fprintf(&b, `<p>Descargá tu factura: <a href="%s/%s/download">%s</a></p>`,
			strings.TrimRight(s.cfg.InvoiceLinkBase, "/"), invoice.Number, invoice.Number)
	}
	return b.String()
}

func (s *service) recentlySent(key string) bool {
	window := s.cfg.DedupeWindow
	if window <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.sentAt[key]
	return ok && s.now().Sub(at) < window
}

func (s *service) markSent(key string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Expired entries can never dedupe again; drop them so the cache stays
	// bounded by the send rate within one window.
	if window := s.cfg.DedupeWindow; window > 0 {
		for k, at := range s.sentAt {
			if now.Sub(at) >= window {
				delete(s.sentAt, k)
			}
		}
	}
	s.sentAt[key] = now
}

func dedupeKey(orderNumber int64, paymentID string) string {
	if paymentID = strings.TrimSpace(paymentID); paymentID != "" {
		return fmt.Sprintf("order-confirmation-%d-%s", orderNumber, paymentID)
	}
	return fmt.Sprintf("order-confirmation-%d", orderNumber)
}

func formatAmount(cents int) string {
	return fmt.Sprintf("%d,%02d", cents/100, cents%100)
}
