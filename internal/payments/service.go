package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/mercadopago"
)

// preferenceCreator is the slice of the provider client this service needs.
type preferenceCreator interface {
	CreatePreference(ctx context.Context, params mercadopago.PreferenceParams) (*mercadopago.Preference, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service creates checkout preferences.
type Service interface {
	CreatePreference(ctx context.Context, orderKey string) (*PreferenceResponse, error)
}

// ServiceParams lists the preference service dependencies.
type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Catalog  catalog.Repository
	Provider preferenceCreator
	Checkout config.CheckoutConfig
	Currency string
	// NotificationURL receives provider webhooks; empty disables them (dev).
	NotificationURL string
}

type service struct {
	tx              txRunner
	orders          orders.Repository
	catalog         catalog.Repository
	provider        preferenceCreator
	checkout        config.CheckoutConfig
	currency        string
	notificationURL string
}

// NewService builds the payments service.
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
	if strings.TrimSpace(params.Currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		tx:              params.Tx,
		orders:          params.Orders,
		catalog:         params.Catalog,
		provider:        params.Provider,
		checkout:        params.Checkout,
		currency:        params.Currency,
		notificationURL: params.NotificationURL,
	}, nil
}

// CreatePreference re-validates stock and registers a provider preference
// charging one synthetic line equal to the stored order total, so the amount
// the buyer approves can always be traced back to the order row. Calling it
// twice mints a second checkout link reusing the same external reference.
func (s *service) CreatePreference(ctx context.Context, orderKey string) (*PreferenceResponse, error) {
	order, err := s.resolveOrder(ctx, orderKey)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusFailed:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable").
			WithDetails(map[string]any{"status": order.Status})
	}

	if err := s.validateStock(ctx, order); err != nil {
		return nil, err
	}

	pref, err := s.provider.CreatePreference(ctx, mercadopago.PreferenceParams{
		Title:             fmt.Sprintf("Pedido #%d", order.OrderNumber),
		Quantity:          1,
		UnitPriceCents:    order.TotalCents,
		Currency:          s.currency,
		ExternalReference: order.ExternalReference,
		SuccessURL:        backURL(s.checkout.SuccessURL, "success", order.ExternalReference),
		FailureURL:        backURL(s.checkout.FailureURL, "failure", order.ExternalReference),
		PendingURL:        backURL(s.checkout.PendingURL, "pending", order.ExternalReference),
		NotificationURL:   s.notificationURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{"preference_id": pref.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preference id")
	}

	return &PreferenceResponse{
		ID:               pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// validateStock locks each tracked product row and checks current stock
// against the order lines. The transaction commits before the provider call
// so no locks are held across the network.
func (s *service) validateStock(ctx context.Context, order *models.Order) error {
	var problems []StockProblem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.catalog.WithTx(tx)
		for _, item := range order.Items {
			product, err := repo.FindBySlugForUpdate(ctx, item.Slug)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					problems = append(problems, StockProblem{
						Slug:      item.Slug,
						Title:     item.Title,
						Requested: item.Qty,
					})
					continue
				}
				return err
			}
			if !product.Active {
				problems = append(problems, StockProblem{
					ProductID: product.ID,
					Slug:      item.Slug,
					Title:     item.Title,
					Requested: item.Qty,
				})
				continue
			}
			if product.Stock != nil && *product.Stock < item.Qty {
				problems = append(problems, StockProblem{
					ProductID: product.ID,
					Slug:      item.Slug,
					Title:     item.Title,
					Requested: item.Qty,
					Available: *product.Stock,
				})
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate stock")
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"problems": problems})
	}
	return nil
}

func (s *service) resolveOrder(ctx context.Context, key string) (*models.Order, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	var (
		order *models.Order
		err   error
	)
	if documentID, parseErr := uuid.Parse(key); parseErr == nil {
		order, err = s.orders.FindByDocumentID(ctx, documentID)
	} else if number, parseErr := strconv.ParseInt(key, 10, 64); parseErr == nil {
		order, err = s.orders.FindByOrderNumber(ctx, number)
	} else {
		order, err = s.orders.FindByExternalReference(ctx, key)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// backURL appends the status and order correlation parameters the storefront
// reads when the buyer returns from checkout.
func backURL(base, status, ref string) string {
	if strings.TrimSpace(base) == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("status", status)
	q.Set("order", ref)
	u.RawQuery = q.Encode()
	return u.String()
}
