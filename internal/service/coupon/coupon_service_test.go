package coupon

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/qrcode"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
)

func setupCouponTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Coupon{}, &models.OperationLog{})
	require.NoError(t, err)

	return db
}

func newTestCouponService(t *testing.T, db *gorm.DB) *CouponService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewOperationLogRepository(db),
		client,
		qrcode.NewGenerator(),
		nil,
		30*time.Second,
	)
}

func onlineIssueRequest(mutate ...func(*IssueRequest)) *IssueRequest {
	req := &IssueRequest{
		CustomerName:       "Asha Patel",
		PhoneNumber:        "9876543210",
		Amount:             50,
		PaymentType:        models.PaymentTypeOnline,
		VerificationStatus: models.VerificationVerified,
		MaxAttempts:        10,
	}
	for _, m := range mutate {
		m(req)
	}
	return req
}

func TestGenerateCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^WF\d{4}[A-Z0-9]{6}$`)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		code := GenerateCode(now)
		assert.Regexp(t, pattern, code)
		assert.Equal(t, "WF2026", code[:6])
	}
}

func TestCouponService_Issue(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	coupon, err := svc.Issue(ctx, onlineIssueRequest())

	require.NoError(t, err)
	assert.Regexp(t, `^WF\d{4}[A-Z0-9]{6}$`, coupon.CouponID)
	assert.Equal(t, "Asha Patel", coupon.CustomerName)
	assert.Equal(t, models.CouponStatusUnused, coupon.Status)
	assert.Equal(t, models.VerificationVerified, coupon.VerificationStatus)
}

func TestCouponService_Issue_TrimsName(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	coupon, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.CustomerName = "  Ravi Kumar  "
	}))

	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", coupon.CustomerName)
}

func TestCouponService_Issue_Validation(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	_, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.CustomerName = "   "
	}))
	assert.ErrorIs(t, err, ErrNameRequired)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.CustomerName = string(long)
	}))
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PhoneNumber = "1234567890" // must start 6-9
	}))
	assert.ErrorIs(t, err, ErrPhoneInvalid)

	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PhoneNumber = "98765"
	}))
	assert.ErrorIs(t, err, ErrPhoneInvalid)
}

func TestCouponService_Issue_DuplicateTransactionID(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	txn := "pay_once"
	_, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.TransactionID = &txn
	}))
	require.NoError(t, err)

	// Replaying the same payment never yields a second coupon.
	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.TransactionID = &txn
	}))
	assert.ErrorIs(t, err, ErrTransactionIDUsed)

	var count int64
	db.Model(&models.Coupon{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCouponService_Issue_DuplicatePaymentID(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	payID := "pay_gw_once"
	_, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PaymentID = &payID
	}))
	require.NoError(t, err)

	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PaymentID = &payID
	}))
	assert.ErrorIs(t, err, ErrPaymentIDUsed)

	var count int64
	db.Model(&models.Coupon{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// The sentinels expose the shared application error codes so handlers
// can surface them without translation.
func TestCouponService_SentinelErrorCodes(t *testing.T) {
	assert.Equal(t, 4000, apperrors.GetAppError(ErrCouponNotFound).Code)
	assert.Equal(t, 4001, apperrors.GetAppError(ErrCouponAlreadyRedeemed).Code)
	assert.Equal(t, 4004, apperrors.GetAppError(ErrTransactionIDUsed).Code)
	assert.Equal(t, 4006, apperrors.GetAppError(ErrPaymentIDUsed).Code)
	assert.Equal(t, 3002, apperrors.GetAppError(ErrPhoneInvalid).Code)
	assert.True(t, apperrors.IsAppError(ErrCouponNotFound))
}

func TestCouponService_Issue_UniqueCodes(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		coupon, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
			r.PhoneNumber = fmt.Sprintf("98765432%02d", i)
		}))
		require.NoError(t, err)
		assert.False(t, seen[coupon.CouponID])
		seen[coupon.CouponID] = true
	}
}

func TestCouponService_Verify(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.VerificationStatus = models.VerificationPending
	}))
	require.NoError(t, err)

	coupon, err := svc.Verify(ctx, created.CouponID, 1, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, coupon.VerificationStatus)

	// Audit trail records the action.
	var logCount int64
	db.Model(&models.OperationLog{}).Where("action = ?", models.LogActionVerify).Count(&logCount)
	assert.Equal(t, int64(1), logCount)

	// Verifying twice is idempotent and logs nothing new.
	_, err = svc.Verify(ctx, created.CouponID, 1, "10.0.0.1")
	require.NoError(t, err)
	db.Model(&models.OperationLog{}).Where("action = ?", models.LogActionVerify).Count(&logCount)
	assert.Equal(t, int64(1), logCount)
}

func TestCouponService_Verify_NotFound(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)

	_, err := svc.Verify(context.Background(), "WF2026MISSIN", 1, "10.0.0.1")

	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_Redeem(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	coupon, err := svc.Redeem(ctx, created.CouponID, 1, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.CouponStatusRedeemed, coupon.Status)
	require.NotNil(t, coupon.RedeemedAt)
}

func TestCouponService_Redeem_Twice(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, created.CouponID, 1, "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, created.CouponID, 2, "10.0.0.2")
	assert.ErrorIs(t, err, ErrCouponAlreadyRedeemed)

	// The first redemption timestamp survives.
	stored, err := svc.Get(ctx, created.CouponID)
	require.NoError(t, err)
	require.NotNil(t, stored.RedeemedAt)
}

func TestCouponService_Redeem_PendingVerification(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.VerificationStatus = models.VerificationPending
	}))
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, created.CouponID, 1, "10.0.0.1")

	assert.ErrorIs(t, err, ErrCouponNotVerified)
}

func TestCouponService_CreateCash(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	coupon, err := svc.CreateCash(ctx, &CreateCashRequest{
		CustomerName: "Walk In",
		PhoneNumber:  "9876501234",
		Amount:       50,
	}, 1, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeCash, coupon.PaymentType)
	// Cash is verified on the spot and immediately redeemable.
	assert.Equal(t, models.VerificationVerified, coupon.VerificationStatus)
	assert.Equal(t, models.CouponStatusUnused, coupon.Status)

	_, err = svc.Redeem(ctx, coupon.CouponID, 1, "10.0.0.1")
	assert.NoError(t, err)
}

func TestCouponService_GetStats_Caching(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	_, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	// New issuance invalidates the cache.
	_, err = svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PhoneNumber = "9876543211"
	}))
	require.NoError(t, err)

	stats, err = svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
}

func TestCouponService_QRCodePNG(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	png, err := svc.QRCodePNG(ctx, created.CouponID)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestCouponService_QRCodePNG_NotFound(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)

	_, err := svc.QRCodePNG(context.Background(), "WF2026MISSIN")

	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_CardPDF(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	created, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	pdf, err := svc.CardPDF(ctx, created.CouponID)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
