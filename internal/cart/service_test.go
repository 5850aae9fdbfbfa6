package cart

import (
	"context"
	"testing"

	"github.com/martinquesada/tienda-backend/internal/catalog"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/pagination"
)

type fakeStore struct {
	docs map[string]*Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*Document{}}
}

func (f *fakeStore) Get(_ context.Context, token string) (*Document, error) {
	if doc, ok := f.docs[token]; ok {
		copied := *doc
		copied.Items = append([]Item(nil), doc.Items...)
		return &copied, nil
	}
	return DecodeDocument(nil), nil
}

func (f *fakeStore) Save(_ context.Context, token string, doc *Document) error {
	f.docs[token] = doc
	return nil
}

func (f *fakeStore) Delete(_ context.Context, token string) error {
	delete(f.docs, token)
	return nil
}

type fakeCatalog struct {
	products map[string]catalog.StockInfo
}

func (f *fakeCatalog) List(context.Context, pagination.Params) (*catalog.ProductListResponse, error) {
	panic("not used")
}

func (f *fakeCatalog) GetBySlug(context.Context, string) (*catalog.ProductView, error) {
	panic("not used")
}

func (f *fakeCatalog) Snapshot(_ context.Context, slugs []string) (map[string]catalog.StockInfo, error) {
	out := map[string]catalog.StockInfo{}
	for _, slug := range slugs {
		if info, ok := f.products[slug]; ok {
			out[slug] = info
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, products map[string]catalog.StockInfo) (Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc, err := NewService(store, &fakeCatalog{products: products}, "ARS")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func defaultProducts() map[string]catalog.StockInfo {
	return map[string]catalog.StockInfo{
		"mate": {
			ProductID:       1,
			Slug:            "mate",
			Title:           "Mate Imperial",
			PriceCents:      10000,
			DiscountPercent: 10,
			Stock:           intPtr(5),
			Active:          true,
		},
		"bombilla": {
			ProductID:  2,
			Slug:       "bombilla",
			Title:      "Bombilla Alpaca",
			PriceCents: 3500,
			Active:     true,
		},
		"descatalogado": {
			ProductID:  3,
			Slug:       "descatalogado",
			Title:      "Viejo",
			PriceCents: 1000,
			Active:     false,
		},
	}
}

func TestAddItemComputesDiscountedTotals(t *testing.T) {
	svc, _ := newTestService(t, defaultProducts())
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "token-1", "mate", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Items))
	}
	line := view.Items[0]
	if line.UnitPriceCents != 9000 {
		t.Fatalf("expected discounted unit 9000, got %d", line.UnitPriceCents)
	}
	if line.OriginalPriceCents != 10000 || line.DiscountPercent != 10 {
		t.Fatalf("original price info missing: %+v", line)
	}
	if view.SubtotalCents != 18000 {
		t.Fatalf("expected subtotal 18000, got %d", view.SubtotalCents)
	}
	if view.Currency != "ARS" {
		t.Fatalf("unexpected currency %q", view.Currency)
	}
}

func TestAddItemAccumulatesAndClampsToStock(t *testing.T) {
	svc, _ := newTestService(t, defaultProducts())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "token-1", "mate", 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.AddItem(ctx, "token-1", "mate", 4)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}

	if view.Items[0].Qty != 5 {
		t.Fatalf("expected clamp to stock 5, got %d", view.Items[0].Qty)
	}
	if len(view.Adjustments) != 1 || view.Adjustments[0].Reason != AdjustmentStockClamped {
		t.Fatalf("expected clamp adjustment, got %v", view.Adjustments)
	}
	if view.Adjustments[0].From != 8 || view.Adjustments[0].To != 5 {
		t.Fatalf("unexpected adjustment range %+v", view.Adjustments[0])
	}
}

func TestAddItemRejectsUnavailableProduct(t *testing.T) {
	svc, _ := newTestService(t, defaultProducts())
	ctx := context.Background()

	for _, slug := range []string{"descatalogado", "fantasma"} {
		_, err := svc.AddItem(ctx, "token-1", slug, 1)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("slug %q: expected not found, got %v", slug, err)
		}
	}
}

func TestGetDropsLinesThatWentUnavailable(t *testing.T) {
	products := defaultProducts()
	svc, store := newTestService(t, products)
	ctx := context.Background()

	store.docs["token-1"] = &Document{
		Version: CurrentVersion,
		Items: []Item{
			{Slug: "mate", Qty: 2},
			{Slug: "descatalogado", Qty: 1},
			{Slug: "eliminado", Qty: 3},
		},
	}

	view, err := svc.Get(ctx, "token-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Slug != "mate" {
		t.Fatalf("expected only available line, got %v", view.Items)
	}
	if len(view.Adjustments) != 2 {
		t.Fatalf("expected 2 removal adjustments, got %v", view.Adjustments)
	}

	// Reconciled state must be persisted.
	saved := store.docs["token-1"]
	if len(saved.Items) != 1 {
		t.Fatalf("reconciliation not persisted: %v", saved.Items)
	}
}

func TestUpdateQtySetAndRemove(t *testing.T) {
	svc, _ := newTestService(t, defaultProducts())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "token-1", "mate", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.UpdateQty(ctx, "token-1", "mate", 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Qty != 3 {
		t.Fatalf("expected qty 3, got %d", view.Items[0].Qty)
	}

	view, err = svc.UpdateQty(ctx, "token-1", "mate", 0)
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart after zero qty")
	}

	_, err = svc.UpdateQty(ctx, "token-1", "mate", 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for absent line, got %v", err)
	}
}

func TestClearDeletesCart(t *testing.T) {
	svc, store := newTestService(t, defaultProducts())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "token-1", "mate", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Clear(ctx, "token-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := store.docs["token-1"]; ok {
		t.Fatalf("expected cart deleted")
	}
}

func TestServiceRequiresToken(t *testing.T) {
	svc, _ := newTestService(t, defaultProducts())
	_, err := svc.Get(context.Background(), " ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestItemsReturnsReconciledLines(t *testing.T) {
	svc, store := newTestService(t, defaultProducts())
	ctx := context.Background()

	store.docs["token-1"] = &Document{
		Version: CurrentVersion,
		Items:   []Item{{Slug: "mate", Qty: 50}, {Slug: "descatalogado", Qty: 1}},
	}

	items, err := svc.Items(ctx, "token-1")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Qty != 5 {
		t.Fatalf("expected clamped single line, got %v", items)
	}
}
