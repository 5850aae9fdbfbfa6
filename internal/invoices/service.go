package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/orders"
	"github.com/martinquesada/tienda-backend/pkg/db"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
)

// fileStore is the slice of the storage client this service needs.
type fileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
}

// DownloadAccess identifies the session holder requesting an invoice.
type DownloadAccess struct {
	UserID *uuid.UUID
	Email  string
}

// Service generates and serves invoices.
type Service interface {
	GenerateForOrder(ctx context.Context, orderID int64) (*models.Invoice, error)
	Download(ctx context.Context, number string, access DownloadAccess) (*models.Invoice, []byte, error)
}

// ServiceParams lists invoice service dependencies.
type ServiceParams struct {
	Repo     Repository
	Orders   orders.Repository
	Store    fileStore
	Business string
}

type service struct {
	repo     Repository
	orders   orders.Repository
	store    fileStore
	business string
	now      func() time.Time
}

// NewService builds the invoices service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("file store required")
	}
	if strings.TrimSpace(params.Business) == "" {
		return nil, fmt.Errorf("business name required")
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		store:    params.Store,
		business: params.Business,
		now:      time.Now,
	}, nil
}

// GenerateForOrder creates the invoice for a paid order. The number is
// derived from the order number and issue date, so repeated calls on the same
// day land on the same number and return the existing row.
func (s *service) GenerateForOrder(ctx context.Context, orderID int64) (*models.Invoice, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid").
			WithDetails(map[string]any{"status": order.Status})
	}

	issuedAt := s.now()
	number := invoiceNumber(order.OrderNumber, issuedAt)

	if existing, err := s.repo.FindByNumber(ctx, number); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
	}

	data, err := renderPDF(order, number, issuedAt, s.business)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}

	fileKey := number + ".pdf"
	if err := s.store.Save(ctx, fileKey, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store invoice file")
	}

	invoice := &models.Invoice{
		Number:      number,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalCents:  order.TotalCents,
		Currency:    order.Currency,
		FileKey:     fileKey,
		IssuedAt:    issuedAt,
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		// A concurrent webhook delivery may have won the insert.
		if db.IsUniqueViolation(err, "") {
			return s.repo.FindByNumber(ctx, number)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice")
	}
	return invoice, nil
}

// Download returns the invoice row and its PDF bytes. Ownership flows from
// the invoice's order: the session user must own the order or match its
// contact email.
func (s *service) Download(ctx context.Context, number string, access DownloadAccess) (*models.Invoice, []byte, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}

	invoice, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}

	order, err := s.orders.FindByID(ctx, invoice.OrderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice order")
	}
	if !s.ownsOrder(order, access) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}

	data, err := s.store.Read(ctx, invoice.FileKey)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read invoice file")
	}
	return invoice, data, nil
}

func (s *service) ownsOrder(order *models.Order, access DownloadAccess) bool {
	if access.UserID != nil && order.UserID != nil && *access.UserID == *order.UserID {
		return true
	}
	if access.Email != "" && strings.EqualFold(access.Email, order.Email) {
		return true
	}
	return false
}

// invoiceNumber derives the deterministic document number, e.g.
// FAC-20260829-001042.
func invoiceNumber(orderNumber int64, issuedAt time.Time) string {
	return fmt.Sprintf("FAC-%s-%06d", issuedAt.Format("20060102"), orderNumber)
}
