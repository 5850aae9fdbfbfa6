package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedOrder(t *testing.T, db *gorm.DB, ref string) *models.Order {
	t.Helper()
	order := &models.Order{
		DocumentID:        uuid.New(),
		CustomerName:      "Cliente",
		Email:             "cliente@example.com",
		SubtotalCents:     10000,
		TotalCents:        10000,
		Currency:          enums.CurrencyARS,
		Status:            enums.OrderStatusPending,
		ExternalReference: ref,
		Items: []models.OrderLineItem{
			{
				Slug:               "mate",
				Title:              "Mate Imperial",
				Qty:                1,
				UnitPriceCents:     10000,
				OriginalPriceCents: 10000,
				LineTotalCents:     10000,
			},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestCreateAndAssignOrderNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "ref-1")

	number, err := repo.AssignOrderNumber(ctx, order.ID)
	if err != nil {
		t.Fatalf("assign order number: %v", err)
	}
	if number != 1000+order.ID {
		t.Fatalf("expected number %d, got %d", 1000+order.ID, number)
	}

	reloaded, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.OrderNumber != number {
		t.Fatalf("order number not persisted: %d", reloaded.OrderNumber)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected items preloaded, got %d", len(reloaded.Items))
	}
}

func TestFindByAlternateKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "ref-2")
	if _, err := repo.AssignOrderNumber(ctx, order.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	byDoc, err := repo.FindByDocumentID(ctx, order.DocumentID)
	if err != nil || byDoc.ID != order.ID {
		t.Fatalf("find by document id failed: %v", err)
	}

	byNumber, err := repo.FindByOrderNumber(ctx, 1000+order.ID)
	if err != nil || byNumber.ID != order.ID {
		t.Fatalf("find by order number failed: %v", err)
	}

	byRef, err := repo.FindByExternalReference(ctx, "ref-2")
	if err != nil || byRef.ID != order.ID {
		t.Fatalf("find by reference failed: %v", err)
	}

	locked, err := repo.FindByExternalReferenceForUpdate(ctx, "ref-2")
	if err != nil || locked.ID != order.ID {
		t.Fatalf("find for update failed: %v", err)
	}
	if len(locked.Items) != 1 {
		t.Fatalf("expected items loaded under lock")
	}

	if _, err := repo.FindByExternalReference(ctx, "desconocida"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestUpdateAppliesPaymentFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, "ref-3")

	paymentID := "12345"
	if err := repo.Update(ctx, order.ID, map[string]any{
		"status":         enums.OrderStatusPaid,
		"payment_id":     paymentID,
		"payment_status": "approved",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", reloaded.Status)
	}
	if reloaded.PaymentID == nil || *reloaded.PaymentID != paymentID {
		t.Fatalf("payment id not stored")
	}
}
