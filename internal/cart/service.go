package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
)

// maxQtyPerLine caps any single cart line.
const maxQtyPerLine = 99

// Service exposes cart operations. Every mutation reconciles the cart
// against the catalog so stale lines never survive a write.
type Service interface {
	Get(ctx context.Context, token string) (*View, error)
	AddItem(ctx context.Context, token, slug string, qty int) (*View, error)
	UpdateQty(ctx context.Context, token, slug string, qty int) (*View, error)
	RemoveItem(ctx context.Context, token, slug string) (*View, error)
	Clear(ctx context.Context, token string) error
	Items(ctx context.Context, token string) ([]Item, error)
}

type service struct {
	store    Store
	catalog  catalog.Service
	currency string
}

// NewService builds the cart service.
func NewService(store Store, catalogSvc catalog.Service, currency string) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{store: store, catalog: catalogSvc, currency: currency}, nil
}

func (s *service) Get(ctx context.Context, token string) (*View, error) {
	doc, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.reconcileAndSave(ctx, token, doc)
}

func (s *service) AddItem(ctx context.Context, token, slug string, qty int) (*View, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	if qty <= 0 {
		qty = 1
	}

	doc, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.catalog.Snapshot(ctx, []string{slug})
	if err != nil {
		return nil, err
	}
	info, ok := snapshot[slug]
	if !ok || !info.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	if idx := doc.Find(slug); idx >= 0 {
		doc.Items[idx].Qty += qty
	} else {
		doc.Items = append(doc.Items, Item{Slug: slug, Qty: qty})
	}

	return s.reconcileAndSave(ctx, token, doc)
}

func (s *service) UpdateQty(ctx context.Context, token, slug string, qty int) (*View, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}

	doc, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	idx := doc.Find(slug)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	if qty <= 0 {
		doc.Remove(slug)
	} else {
		doc.Items[idx].Qty = qty
	}

	return s.reconcileAndSave(ctx, token, doc)
}

func (s *service) RemoveItem(ctx context.Context, token, slug string) (*View, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}

	doc, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	doc.Remove(slug)

	return s.reconcileAndSave(ctx, token, doc)
}

func (s *service) Clear(ctx context.Context, token string) error {
	if err := validateToken(token); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Items returns the reconciled raw lines. Checkout uses this to quote and
// build orders from the same view the customer saw.
func (s *service) Items(ctx context.Context, token string) ([]Item, error) {
	doc, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshotFor(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc, _ = reconcile(doc, snapshot)
	return doc.Items, nil
}

func (s *service) load(ctx context.Context, token string) (*Document, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return doc, nil
}

func (s *service) snapshotFor(ctx context.Context, doc *Document) (map[string]catalog.StockInfo, error) {
	slugs := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		slugs = append(slugs, item.Slug)
	}
	return s.catalog.Snapshot(ctx, slugs)
}

func (s *service) reconcileAndSave(ctx context.Context, token string, doc *Document) (*View, error) {
	snapshot, err := s.snapshotFor(ctx, doc)
	if err != nil {
		return nil, err
	}

	doc, adjustments := reconcile(doc, snapshot)
	if err := s.store.Save(ctx, token, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	return buildView(doc, snapshot, s.currency, adjustments), nil
}

// reconcile drops unavailable lines and clamps quantities to stock.
func reconcile(doc *Document, snapshot map[string]catalog.StockInfo) (*Document, []Adjustment) {
	var adjustments []Adjustment
	kept := make([]Item, 0, len(doc.Items))
	for _, item := range doc.Items {
		info, ok := snapshot[item.Slug]
		if !ok || !info.Active {
			adjustments = append(adjustments, Adjustment{
				Slug:   item.Slug,
				Reason: AdjustmentRemovedUnavailable,
				From:   item.Qty,
			})
			continue
		}

		qty := item.Qty
		if qty > maxQtyPerLine {
			qty = maxQtyPerLine
		}
		if info.Stock != nil && qty > *info.Stock {
			qty = *info.Stock
		}
		if qty <= 0 {
			adjustments = append(adjustments, Adjustment{
				Slug:   item.Slug,
				Reason: AdjustmentRemovedUnavailable,
				From:   item.Qty,
			})
			continue
		}
		if qty != item.Qty {
			adjustments = append(adjustments, Adjustment{
				Slug:   item.Slug,
				Reason: AdjustmentStockClamped,
				From:   item.Qty,
				To:     qty,
			})
		}
		kept = append(kept, Item{Slug: item.Slug, Qty: qty})
	}
	doc.Items = kept
	return doc, adjustments
}

func buildView(doc *Document, snapshot map[string]catalog.StockInfo, currency string, adjustments []Adjustment) *View {
	view := &View{
		Items:       make([]LineView, 0, len(doc.Items)),
		Currency:    currency,
		Adjustments: adjustments,
	}
	for _, item := range doc.Items {
		info := snapshot[item.Slug]
		unit := catalog.FinalUnitPriceCents(info.PriceCents, info.DiscountPercent)
		view.Items = append(view.Items, LineView{
			Slug:               item.Slug,
			Title:              info.Title,
			Qty:                item.Qty,
			UnitPriceCents:     unit,
			OriginalPriceCents: info.PriceCents,
			DiscountPercent:    info.DiscountPercent,
			LineTotalCents:     unit * item.Qty,
			Stock:              info.Stock,
		})
		view.SubtotalCents += unit * item.Qty
	}
	return view
}

func validateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	return nil
}
