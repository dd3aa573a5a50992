package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
)

// CouponRepository accesses coupons.
type CouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a CouponRepository.
func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create inserts a coupon. A gorm.ErrDuplicatedKey return means the
// coupon code, payment id or transaction id collided with an existing
// row.
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// GetByCode fetches a coupon by its public code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("coupon_id = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ExistsByPaymentID reports whether any coupon carries the gateway
// payment id.
func (r *CouponRepository) ExistsByPaymentID(ctx context.Context, paymentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByTransactionID reports whether any coupon carries the
// transaction id.
func (r *CouponRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Search             string // matches coupon code, name or phone
	Status             string
	VerificationStatus string
	PaymentType        string
}

// List returns coupons newest first, filtered and paginated.
func (r *CouponRepository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if filter.Search != "" {
		// LOWER on both sides keeps the match case-insensitive on
		// PostgreSQL, where plain LIKE is not.
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(coupon_id) LIKE ? OR LOWER(customer_name) LIKE ? OR phone_number LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VerificationStatus != "" {
		query = query.Where("verification_status = ?", filter.VerificationStatus)
	}
	if filter.PaymentType != "" {
		query = query.Where("payment_type = ?", filter.PaymentType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// MarkVerified flips a pending coupon to verified. Returns the number
// of rows changed, 0 when the coupon was already verified or missing.
func (r *CouponRepository) MarkVerified(ctx context.Context, code string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("coupon_id = ? AND verification_status = ?", code, models.VerificationPending).
		Update("verification_status", models.VerificationVerified)
	return result.RowsAffected, result.Error
}

// MarkRedeemed redeems a verified, unused coupon. The conditional
// update makes concurrent redemptions of the same code settle to a
// single winner.
func (r *CouponRepository) MarkRedeemed(ctx context.Context, code string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("coupon_id = ? AND status = ? AND verification_status = ?",
			code, models.CouponStatusUnused, models.VerificationVerified).
		Updates(map[string]interface{}{
			"status":      models.CouponStatusRedeemed,
			"redeemed_at": at,
		})
	return result.RowsAffected, result.Error
}

// Stats aggregates coupon counts and revenue.
type Stats struct {
	Total               int64   `json:"total"`
	Redeemed            int64   `json:"redeemed"`
	Unused              int64   `json:"unused"`
	Online              int64   `json:"online"`
	Cash                int64   `json:"cash"`
	PendingVerification int64   `json:"pending_verification"`
	Revenue             float64 `json:"revenue"`
}

// GetStats computes dashboard statistics. Revenue counts verified
// coupons only.
func (r *CouponRepository) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx).Model(&models.Coupon{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("status = ?", models.CouponStatusRedeemed).
		Count(&stats.Redeemed).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("status = ?", models.CouponStatusUnused).
		Count(&stats.Unused).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("payment_type = ?", models.PaymentTypeOnline).
		Count(&stats.Online).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("payment_type = ?", models.PaymentTypeCash).
		Count(&stats.Cash).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("verification_status = ?", models.VerificationPending).
		Count(&stats.PendingVerification).Error; err != nil {
		return nil, err
	}

	var revenue *float64
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("verification_status = ?", models.VerificationVerified).
		Select("SUM(amount)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}

	return &stats, nil
}

// CountPendingVerification counts manual payments awaiting review.
func (r *CouponRepository) CountPendingVerification(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("verification_status = ?", models.VerificationPending).
		Count(&count).Error
	return count, err
}

// ListPendingSince returns pending manual payments created after t.
func (r *CouponRepository) ListPendingSince(ctx context.Context, t time.Time) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	err := r.db.WithContext(ctx).
		Where("verification_status = ? AND created_at > ?", models.VerificationPending, t).
		Order("created_at DESC").
		Find(&coupons).Error
	return coupons, err
}
