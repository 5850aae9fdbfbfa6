package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	"github.com/martinquesada/tienda-backend/internal/emails"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/mercadopago"
	"github.com/martinquesada/tienda-backend/pkg/metrics"
)

// provider is the slice of the MercadoPago client the webhook needs.
type provider interface {
	GetPayment(ctx context.Context, paymentID int64) (*mercadopago.Payment, error)
	GetMerchantOrder(ctx context.Context, merchantOrderID int64) (*mercadopago.MerchantOrder, error)
}

type invoiceGenerator interface {
	GenerateForOrder(ctx context.Context, orderID int64) (*models.Invoice, error)
}

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, orderID int64, paymentID string) (*emails.Outcome, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles provider notifications against stored orders.
type Service interface {
	Process(ctx context.Context, notification Notification) error
}

// ServiceParams lists the webhook service dependencies. Metrics may be nil.
type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Catalog  catalog.Repository
	Provider provider
	Invoices invoiceGenerator
	Emails   confirmationSender
	Metrics  *metrics.WebhookMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	catalog  catalog.Repository
	provider provider
	invoices invoiceGenerator
	emails   confirmationSender
	metrics  *metrics.WebhookMetrics
	logger   *logger.Logger
}

// NewService builds the webhook reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	if params.Emails == nil {
		return nil, fmt.Errorf("confirmation sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       params.Tx,
		orders:   params.Orders,
		catalog:  params.Catalog,
		provider: params.Provider,
		invoices: params.Invoices,
		emails:   params.Emails,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}, nil
}

// Process resolves the notification to a payment, maps its status onto the
// order, and fires the pending-to-paid side effects exactly once. The status
// write runs under a row lock so concurrent deliveries serialize; a paid
// order is never downgraded.
func (s *service) Process(ctx context.Context, notification Notification) error {
	started := time.Now()
	defer func() {
		s.metrics.ObserveDuration(notification.Topic, time.Since(started))
	}()

	payment, err := s.resolvePayment(ctx, notification)
	if err != nil {
		s.metrics.IncProcessed(notification.Topic, "error")
		return err
	}
	if payment == nil {
		s.metrics.IncProcessed(notification.Topic, "ignored")
		return nil
	}
	if payment.ExternalReference == "" {
		s.logger.Warn(ctx, "payment carries no external reference, ignoring")
		s.metrics.IncProcessed(notification.Topic, "ignored")
		return nil
	}

	ctx = s.logger.WithOrderRef(ctx, payment.ExternalReference)

	var (
		order *models.Order
		prev  enums.OrderStatus
		next  enums.OrderStatus
		edge  bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		locked, err := repo.FindByExternalReferenceForUpdate(ctx, payment.ExternalReference)
		if err != nil {
			return err
		}

		prev = locked.Status
		next = enums.FromProviderStatus(payment.Status)
		if prev == enums.OrderStatusPaid {
			next = enums.OrderStatusPaid
		}
		edge = prev != enums.OrderStatusPaid && next == enums.OrderStatusPaid

		updates := map[string]any{
			"status":                next,
			"payment_id":            strconv.FormatInt(payment.ID, 10),
			"payment_status":        payment.Status,
			"payment_status_detail": payment.StatusDetail,
		}
		if notification.Topic == TopicMerchantOrder {
			updates["merchant_order_id"] = strconv.FormatInt(notification.ID, 10)
		}
		if err := repo.Update(ctx, locked.ID, updates); err != nil {
			return err
		}

		if edge {
			s.commitStock(ctx, tx, locked)
		}

		order = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(ctx, "no order matches the payment reference")
			s.metrics.IncProcessed(notification.Topic, "order_not_found")
			return nil
		}
		s.metrics.IncProcessed(notification.Topic, "error")
		return err
	}

	if prev != next {
		s.metrics.IncTransition(string(next))
	}
	s.metrics.IncProcessed(notification.Topic, "applied")

	if edge {
		s.runPaidSideEffects(ctx, order, payment)
	}
	return nil
}

// resolvePayment turns a merchant-order notification into its payment. A nil
// payment with nil error means there is nothing to reconcile yet.
func (s *service) resolvePayment(ctx context.Context, notification Notification) (*mercadopago.Payment, error) {
	paymentID := notification.ID
	if notification.Topic == TopicMerchantOrder {
		merchantOrder, err := s.provider.GetMerchantOrder(ctx, notification.ID)
		if err != nil {
			return nil, err
		}
		paymentID = pickPayment(merchantOrder.Payments)
		if paymentID == 0 {
			s.logger.Info(ctx, "merchant order has no payments yet")
			return nil, nil
		}
	}
	return s.provider.GetPayment(ctx, paymentID)
}

// pickPayment prefers the approved attempt; otherwise the first one.
func pickPayment(payments []mercadopago.MerchantOrderPayment) int64 {
	for _, p := range payments {
		if p.Status == "approved" {
			return p.ID
		}
	}
	if len(payments) > 0 {
		return payments[0].ID
	}
	return 0
}

// commitStock decrements tracked stock for the sold lines. Failures are
// logged and not propagated: the payment already happened.
func (s *service) commitStock(ctx context.Context, tx *gorm.DB, order *models.Order) {
	repo := s.catalog.WithTx(tx)
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		ok, err := repo.DecrementStock(ctx, *item.ProductID, item.Qty)
		if err != nil {
			s.logger.Error(ctx, "stock decrement failed", err)
			continue
		}
		if !ok {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{"slug": item.Slug}),
				"stock went below the sold quantity")
		}
	}
}

// runPaidSideEffects generates the invoice and sends the confirmation email.
// Both failures are aggregated, logged, and swallowed so the provider never
// retries a payment that was already applied.
func (s *service) runPaidSideEffects(ctx context.Context, order *models.Order, payment *mercadopago.Payment) {
	var errs error
	if _, err := s.invoices.GenerateForOrder(ctx, order.ID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invoice: %w", err))
	}
	if _, err := s.emails.SendOrderConfirmation(ctx, order.ID, strconv.FormatInt(payment.ID, 10)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("email: %w", err))
	}
	if errs != nil {
		s.logger.Error(ctx, "post-payment side effects failed", errs)
	}
}
