package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
	"github.com/martinquesada/tienda-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Product, error)
	FindBySlugForUpdate(ctx context.Context, slug string) (*models.Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC, document_id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND document_id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Product, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindBySlugForUpdate(ctx context.Context, slug string) (*models.Product, error) {
	q := r.db.WithContext(ctx)
	// sqlite serializes writers; the row lock is postgres-only.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := q.Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock atomically reduces tracked stock. Untracked products (NULL
// stock) always succeed. Returns false when stock was insufficient.
func (r *repository) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = CASE WHEN stock IS NULL THEN NULL ELSE stock - ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND (stock IS NULL OR stock >= ?)
	`, qty, productID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
