package checkout

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

// CouponRepository exposes coupon lookups.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository builds a coupon repository bound to the provided DB.
func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

// FindByCode matches codes case-insensitively so customers can type them
// however the promo material printed them.
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
