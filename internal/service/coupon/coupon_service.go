// Package coupon provides coupon issuance, verification and redemption.
package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/logger"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/metrics"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/qrcode"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/utils"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
)

// Sentinel errors, carrying the shared application error codes so
// handler.HandleError can map them without per-handler translation.
var (
	ErrCouponNotFound        = apperrors.ErrCouponNotFound
	ErrCouponAlreadyRedeemed = apperrors.ErrCouponAlreadyRedeemed
	ErrCouponNotVerified     = apperrors.ErrCouponNotVerified
	ErrCodeExhausted         = apperrors.ErrCouponCodeExhausted
	ErrTransactionIDUsed     = apperrors.ErrTransactionIDUsed
	ErrPaymentIDUsed         = apperrors.ErrPaymentIDUsed
	ErrNameRequired          = apperrors.ErrNameRequired
	ErrNameTooLong           = apperrors.ErrNameTooLong
	ErrPhoneInvalid          = apperrors.ErrPhoneInvalid
	ErrInvalidQRPayload      = apperrors.ErrInvalidQRPayload
)

const (
	maxNameLength = 100
	statsCacheKey = "coupon:stats"
)

// CouponService implements the coupon lifecycle.
type CouponService struct {
	couponRepo    *repository.CouponRepository
	opLogRepo     *repository.OperationLogRepository
	redisClient   *redis.Client // nil disables stats caching
	qrGen         *qrcode.Generator
	metrics       *metrics.Metrics // nil disables metrics
	statsCacheTTL time.Duration
}

// NewCouponService creates a CouponService.
func NewCouponService(
	couponRepo *repository.CouponRepository,
	opLogRepo *repository.OperationLogRepository,
	redisClient *redis.Client,
	qrGen *qrcode.Generator,
	m *metrics.Metrics,
	statsCacheTTL time.Duration,
) *CouponService {
	return &CouponService{
		couponRepo:    couponRepo,
		opLogRepo:     opLogRepo,
		redisClient:   redisClient,
		qrGen:         qrGen,
		metrics:       m,
		statsCacheTTL: statsCacheTTL,
	}
}

// IssueRequest describes a coupon to create.
type IssueRequest struct {
	CustomerName string
	PhoneNumber  string
	Amount       float64
	PaymentType  string
	// PaymentID is the gateway payment reference; TransactionID is the
	// attendee-reported manual UPI reference. Both are unique when set.
	PaymentID          *string
	TransactionID      *string
	VerificationStatus string
	// MaxAttempts bounds code generation retries. Zero or negative
	// keeps retrying until an unused code is found.
	MaxAttempts int
}

// ValidateCustomer normalizes the name and checks the phone number.
func ValidateCustomer(name, phone string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len([]rune(name)) > maxNameLength {
		return "", ErrNameTooLong
	}
	if !utils.ValidatePhone(phone) {
		return "", ErrPhoneInvalid
	}
	return name, nil
}

// Issue creates a coupon with a fresh unique code. Code collisions are
// detected by the unique index and retried with a new code; a payment
// id or transaction id collision is not retryable and surfaces as
// ErrPaymentIDUsed or ErrTransactionIDUsed.
func (s *CouponService) Issue(ctx context.Context, req *IssueRequest) (*models.Coupon, error) {
	name, err := ValidateCustomer(req.CustomerName, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if err := s.checkPaymentReferences(ctx, req); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if req.MaxAttempts > 0 && attempt >= req.MaxAttempts {
			return nil, ErrCodeExhausted
		}

		coupon := &models.Coupon{
			CouponID:           GenerateCode(time.Now()),
			CustomerName:       name,
			PhoneNumber:        req.PhoneNumber,
			Amount:             req.Amount,
			PaymentType:        req.PaymentType,
			PaymentID:          req.PaymentID,
			TransactionID:      req.TransactionID,
			VerificationStatus: req.VerificationStatus,
			Status:             models.CouponStatusUnused,
		}

		err := s.couponRepo.Create(ctx, coupon)
		if err == nil {
			s.invalidateStats(ctx)
			if s.metrics != nil {
				s.metrics.CouponIssued(req.PaymentType)
			}
			logger.Info("coupon issued",
				logger.CouponCode(coupon.CouponID),
				logger.String("payment_type", req.PaymentType),
			)
			return coupon, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		// The duplicate can be the code or a payment reference. A
		// reference that exists now means a concurrent insert won the
		// race, so retrying with a new code cannot help.
		if checkErr := s.checkPaymentReferences(ctx, req); checkErr != nil {
			return nil, checkErr
		}
	}
}

// checkPaymentReferences rejects an issue request whose payment id or
// transaction id is already bound to a coupon.
func (s *CouponService) checkPaymentReferences(ctx context.Context, req *IssueRequest) error {
	if req.PaymentID != nil {
		used, err := s.couponRepo.ExistsByPaymentID(ctx, *req.PaymentID)
		if err != nil {
			return err
		}
		if used {
			return ErrPaymentIDUsed
		}
	}
	if req.TransactionID != nil {
		used, err := s.couponRepo.ExistsByTransactionID(ctx, *req.TransactionID)
		if err != nil {
			return err
		}
		if used {
			return ErrTransactionIDUsed
		}
	}
	return nil
}

// Get fetches a coupon by code.
func (s *CouponService) Get(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

// Verify approves a pending manual payment. Verifying an already
// verified coupon is a no-op.
func (s *CouponService) Verify(ctx context.Context, code string, adminID int64, ip string) (*models.Coupon, error) {
	coupon, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	affected, err := s.couponRepo.MarkVerified(ctx, code)
	if err != nil {
		return nil, err
	}
	if affected > 0 {
		coupon.VerificationStatus = models.VerificationVerified
		s.invalidateStats(ctx)
		s.logOperation(ctx, adminID, models.LogActionVerify, code, ip, models.JSON{
			"payment_type": coupon.PaymentType,
		})
	}
	return coupon, nil
}

// Redeem marks a coupon used. Only verified, unused coupons redeem;
// concurrent attempts settle to a single winner and the loser gets
// ErrCouponAlreadyRedeemed.
func (s *CouponService) Redeem(ctx context.Context, code string, adminID int64, ip string) (*models.Coupon, error) {
	coupon, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if coupon.Status == models.CouponStatusRedeemed {
		return nil, ErrCouponAlreadyRedeemed
	}
	if coupon.VerificationStatus != models.VerificationVerified {
		return nil, ErrCouponNotVerified
	}

	now := time.Now()
	affected, err := s.couponRepo.MarkRedeemed(ctx, code, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost a race, reclassify from the current row.
		current, err := s.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		if current.Status == models.CouponStatusRedeemed {
			return nil, ErrCouponAlreadyRedeemed
		}
		return nil, ErrCouponNotVerified
	}

	coupon.Status = models.CouponStatusRedeemed
	coupon.RedeemedAt = &now
	s.invalidateStats(ctx)
	if s.metrics != nil {
		s.metrics.CouponRedeemed()
	}
	s.logOperation(ctx, adminID, models.LogActionRedeem, code, ip, nil)
	logger.Info("coupon redeemed", logger.CouponCode(code), logger.AdminID(adminID))
	return coupon, nil
}

// CreateCashRequest is a cash sale recorded at the counter.
type CreateCashRequest struct {
	CustomerName string  `json:"customer_name" binding:"required"`
	PhoneNumber  string  `json:"phone_number" binding:"required"`
	Amount       float64 `json:"amount"`
}

// CreateCash issues a coupon for a cash payment taken in person. Cash
// coupons are born verified since the money has already changed hands.
func (s *CouponService) CreateCash(ctx context.Context, req *CreateCashRequest, adminID int64, ip string) (*models.Coupon, error) {
	coupon, err := s.Issue(ctx, &IssueRequest{
		CustomerName:       req.CustomerName,
		PhoneNumber:        req.PhoneNumber,
		Amount:             req.Amount,
		PaymentType:        models.PaymentTypeCash,
		VerificationStatus: models.VerificationVerified,
	})
	if err != nil {
		return nil, err
	}
	s.logOperation(ctx, adminID, models.LogActionCreate, coupon.CouponID, ip, models.JSON{
		"payment_type": models.PaymentTypeCash,
		"amount":       req.Amount,
	})
	return coupon, nil
}

// List returns coupons for the dashboard.
func (s *CouponService) List(ctx context.Context, filter repository.ListFilter, offset, limit int) ([]*models.Coupon, int64, error) {
	return s.couponRepo.List(ctx, filter, offset, limit)
}

// GetStats returns dashboard statistics, served from cache when fresh.
func (s *CouponService) GetStats(ctx context.Context) (*repository.Stats, error) {
	if s.redisClient != nil {
		if data, err := s.redisClient.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats repository.Stats
			if json.Unmarshal([]byte(data), &stats) == nil {
				return &stats, nil
			}
		}
	}
	return s.RefreshStats(ctx)
}

// RefreshStats recomputes statistics and repopulates the cache.
func (s *CouponService) RefreshStats(ctx context.Context) (*repository.Stats, error) {
	stats, err := s.couponRepo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SetPendingVerification(stats.PendingVerification)
	}
	if s.redisClient != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.redisClient.Set(ctx, statsCacheKey, data, s.statsCacheTTL)
		}
	}
	return stats, nil
}

func (s *CouponService) invalidateStats(ctx context.Context) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, statsCacheKey)
	}
}

func (s *CouponService) logOperation(ctx context.Context, adminID int64, action, code, ip string, detail models.JSON) {
	if s.opLogRepo == nil {
		return
	}
	err := s.opLogRepo.Create(ctx, &models.OperationLog{
		AdminID:    adminID,
		Module:     models.LogModuleCoupon,
		Action:     action,
		CouponCode: &code,
		Detail:     detail,
		IP:         ip,
	})
	if err != nil {
		logger.Warn("record operation log failed", logger.Err(err))
	}
}
