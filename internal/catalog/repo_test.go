package catalog

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedProduct(t *testing.T, db *gorm.DB, slug string, stock *int, createdAt time.Time) models.Product {
	t.Helper()
	product := models.Product{
		Slug:       slug,
		Title:      "Producto " + slug,
		PriceCents: 10000,
		Stock:      stock,
		Active:     true,
		CreatedAt:  createdAt,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", slug, err)
	}
	return product
}

func intPtr(v int) *int { return &v }

func TestListActiveOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	seedProduct(t, db, "viejo", nil, base.Add(-2*time.Hour))
	seedProduct(t, db, "nuevo", nil, base)
	inactive := seedProduct(t, db, "oculto", nil, base.Add(-time.Hour))
	if err := db.Model(&inactive).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	products, err := repo.ListActive(ctx, 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(products))
	}
	if products[0].Slug != "nuevo" || products[1].Slug != "viejo" {
		t.Fatalf("unexpected order: %s, %s", products[0].Slug, products[1].Slug)
	}
}

func TestFindBySlugs(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seedProduct(t, db, "mate", intPtr(5), now)
	seedProduct(t, db, "bombilla", nil, now)

	products, err := repo.FindBySlugs(ctx, []string{"mate", "bombilla", "inexistente"})
	if err != nil {
		t.Fatalf("find by slugs: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	none, err := repo.FindBySlugs(ctx, nil)
	if err != nil || none != nil {
		t.Fatalf("expected empty result for no slugs, got %v err=%v", none, err)
	}
}

func TestDecrementStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tracked := seedProduct(t, db, "mate", intPtr(3), time.Now().UTC())
	untracked := seedProduct(t, db, "digital", nil, time.Now().UTC())

	ok, err := repo.DecrementStock(ctx, tracked.ID, 2)
	if err != nil || !ok {
		t.Fatalf("expected decrement to succeed, ok=%v err=%v", ok, err)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, tracked.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Stock == nil || *reloaded.Stock != 1 {
		t.Fatalf("expected stock 1, got %v", reloaded.Stock)
	}

	// Remaining stock is 1; asking for 2 must fail without touching the row.
	ok, err = repo.DecrementStock(ctx, tracked.ID, 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if ok {
		t.Fatalf("expected insufficient stock")
	}

	ok, err = repo.DecrementStock(ctx, untracked.ID, 99)
	if err != nil || !ok {
		t.Fatalf("untracked products must always succeed, ok=%v err=%v", ok, err)
	}
}
