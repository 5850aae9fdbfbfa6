package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
)

// AccessContext carries the caller identity used for ownership checks. Ref
// is the correlation reference handed out at checkout; holding it grants
// read access without a session, which is what lets guests poll their order.
type AccessContext struct {
	UserID *uuid.UUID
	Email  string
	Ref    string
}

// Service exposes order reads with ownership enforcement.
type Service interface {
	Get(ctx context.Context, key string, access AccessContext) (*View, error)
}

type service struct {
	repo Repository
}

// NewService builds the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// Get resolves the order by document ID, order number, or external
// reference, in that probe order. Lookups that fail ownership report not
// found so sequential order numbers cannot be enumerated.
func (s *service) Get(ctx context.Context, key string, access AccessContext) (*View, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order key required")
	}

	order, err := s.resolve(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !authorized(order, access) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	return ViewFromModel(order), nil
}

func (s *service) resolve(ctx context.Context, key string) (*models.Order, error) {
	if documentID, err := uuid.Parse(key); err == nil {
		return s.repo.FindByDocumentID(ctx, documentID)
	}
	if number, err := strconv.ParseInt(key, 10, 64); err == nil {
		return s.repo.FindByOrderNumber(ctx, number)
	}
	return s.repo.FindByExternalReference(ctx, key)
}

func authorized(order *models.Order, access AccessContext) bool {
	if access.Ref != "" && access.Ref == order.ExternalReference {
		return true
	}
	if access.UserID != nil && order.UserID != nil && *access.UserID == *order.UserID {
		return true
	}
	if access.Email != "" && strings.EqualFold(access.Email, order.Email) {
		return true
	}
	return false
}
