package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/pagination"
)

// StockInfo is the per-product snapshot used when clamping carts and
// validating checkouts. Stock is nil for untracked products.
type StockInfo struct {
	ProductID       int64
	DocumentID      string
	Slug            string
	Title           string
	PriceCents      int
	DiscountPercent int
	Stock           *int
	Active          bool
}

// Service exposes catalog reads for controllers and sibling services.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*ProductListResponse, error)
	GetBySlug(ctx context.Context, slug string) (*ProductView, error)
	Snapshot(ctx context.Context, slugs []string) (map[string]StockInfo, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ProductListResponse, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	products, err := s.repo.ListActive(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	resp := &ProductListResponse{Products: make([]ProductView, 0, len(products))}
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	for _, p := range products {
		resp.Products = append(resp.Products, ViewFromModel(p))
	}
	if hasMore {
		last := products[len(products)-1]
		resp.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.DocumentID,
		})
	}
	return resp, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductView, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	view := ViewFromModel(*product)
	return &view, nil
}

func (s *service) Snapshot(ctx context.Context, slugs []string) (map[string]StockInfo, error) {
	unique := make([]string, 0, len(slugs))
	seen := map[string]bool{}
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		unique = append(unique, slug)
	}
	if len(unique) == 0 {
		return map[string]StockInfo{}, nil
	}

	products, err := s.repo.FindBySlugs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	snapshot := make(map[string]StockInfo, len(products))
	for _, p := range products {
		snapshot[p.Slug] = StockInfo{
			ProductID:       p.ID,
			DocumentID:      p.DocumentID.String(),
			Slug:            p.Slug,
			Title:           p.Title,
			PriceCents:      p.PriceCents,
			DiscountPercent: p.DiscountPercent,
			Stock:           p.Stock,
			Active:          p.Active,
		}
	}
	return snapshot, nil
}
