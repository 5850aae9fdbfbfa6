package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

// Repository exposes order persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	AssignOrderNumber(ctx context.Context, orderID int64) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber int64) (*models.Order, error)
	FindByExternalReference(ctx context.Context, ref string) (*models.Order, error)
	FindByExternalReferenceForUpdate(ctx context.Context, ref string) (*models.Order, error)
	Update(ctx context.Context, orderID int64, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// AssignOrderNumber derives the human-facing number from the row ID so it is
// gapless per insert and safe under concurrent checkouts.
func (r *repository) AssignOrderNumber(ctx context.Context, orderID int64) (int64, error) {
	number := orderNumberFor(orderID)
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND (order_number IS NULL OR order_number = 0)", orderID).
		UpdateColumn("order_number", number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "document_id = ?", documentID)
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber int64) (*models.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *repository) FindByExternalReference(ctx context.Context, ref string) (*models.Order, error) {
	return r.findOne(ctx, "external_reference = ?", ref)
}

func (r *repository) FindByExternalReferenceForUpdate(ctx context.Context, ref string) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	// sqlite serializes writers; the row lock is postgres-only.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := q.Where("external_reference = ?", ref).First(&order).Error; err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, orderID int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where(query, arg).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// loadItems avoids Preload inside a locked SELECT; the items query runs
// separately within the same transaction.
func (r *repository) loadItems(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&order.Items).Error
}

// orderNumberFor keeps customer-facing numbers out of the low ID range.
func orderNumberFor(orderID int64) int64 {
	return 1000 + orderID
}
