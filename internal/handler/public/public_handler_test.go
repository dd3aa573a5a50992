package public

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/qrcode"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/payment"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/razorpay"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/upi"
)

const testKeySecret = "test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Coupon{}, &models.OperationLog{})
	require.NoError(t, err)

	return db
}

func newFakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_test123",
			"entity":   "order",
			"amount":   5000,
			"currency": "INR",
			"status":   "created",
		})
	}))
}

func newTestRouter(t *testing.T, db *gorm.DB, gatewayURL string) (*gin.Engine, *coupon.CouponService) {
	t.Helper()

	couponService := coupon.NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewOperationLogRepository(db),
		nil,
		qrcode.NewGenerator(),
		nil,
		time.Minute,
	)

	var gateway *razorpay.Client
	if gatewayURL != "" {
		gateway = razorpay.NewClient(&razorpay.Config{
			KeyID:     "rzp_test_key",
			KeySecret: testKeySecret,
			BaseURL:   gatewayURL,
		})
	}
	builder := upi.NewBuilder(&upi.Config{
		MerchantID:   "wafflefiesta@upi",
		MerchantName: "WaffleFiesta",
	})
	paymentService := payment.NewPaymentService(gateway, builder, couponService, nil, 50, 10)

	r := gin.New()
	NewHandler(paymentService, couponService, qrcode.NewGenerator()).RegisterRoutes(r.Group("/api/v1"))
	return r, couponService
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	gateway := newFakeGateway(t)
	defer gateway.Close()
	r, _ := newTestRouter(t, setupTestDB(t), gateway.URL)

	w := doJSON(r, http.MethodPost, "/api/v1/orders", gin.H{
		"name":  "Asha Rao",
		"phone": "9812345678",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order_test123", resp["orderId"])
	assert.Equal(t, "rzp_test_key", resp["razorpayKeyId"])
}

func TestCreateOrder_InvalidPhone(t *testing.T) {
	gateway := newFakeGateway(t)
	defer gateway.Close()
	r, _ := newTestRouter(t, setupTestDB(t), gateway.URL)

	w := doJSON(r, http.MethodPost, "/api/v1/orders", gin.H{
		"name":  "Asha Rao",
		"phone": "12345",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestCreateOrder_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	w := doJSON(r, http.MethodPost, "/api/v1/orders", gin.H{"name": "Asha Rao"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_GatewayNotConfigured(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	w := doJSON(r, http.MethodPost, "/api/v1/orders", gin.H{
		"name":  "Asha Rao",
		"phone": "9812345678",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVerifyPayment(t *testing.T) {
	gateway := newFakeGateway(t)
	defer gateway.Close()
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, gateway.URL)

	w := doJSON(r, http.MethodPost, "/api/v1/payments/verify", gin.H{
		"name":                "Asha Rao",
		"phone":               "9812345678",
		"razorpay_order_id":   "order_test123",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  signPayment("order_test123", "pay_abc"),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Coupon struct {
			CouponID    string `json:"couponId"`
			Name        string `json:"name"`
			Phone       string `json:"phone"`
			PaymentType string `json:"paymentType"`
		} `json:"coupon"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, regexp.MustCompile(`^WF\d{4}[A-Z0-9]{6}$`), resp.Coupon.CouponID)
	assert.Equal(t, "Asha Rao", resp.Coupon.Name)
	assert.Equal(t, models.PaymentTypeOnline, resp.Coupon.PaymentType)

	var stored models.Coupon
	require.NoError(t, db.Where("coupon_id = ?", resp.Coupon.CouponID).First(&stored).Error)
	assert.Equal(t, models.VerificationVerified, stored.VerificationStatus)
	assert.Equal(t, models.CouponStatusUnused, stored.Status)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_abc", *stored.PaymentID)
	assert.Nil(t, stored.TransactionID)
}

func TestVerifyPayment_ReplayedPayment(t *testing.T) {
	gateway := newFakeGateway(t)
	defer gateway.Close()
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, gateway.URL)

	body := gin.H{
		"name":                "Asha Rao",
		"phone":               "9812345678",
		"razorpay_order_id":   "order_test123",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  signPayment("order_test123", "pay_abc"),
	}

	w := doJSON(r, http.MethodPost, "/api/v1/payments/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/payments/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already")

	var count int64
	db.Model(&models.Coupon{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	gateway := newFakeGateway(t)
	defer gateway.Close()
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, gateway.URL)

	sig := signPayment("order_test123", "pay_abc")
	w := doJSON(r, http.MethodPost, "/api/v1/payments/verify", gin.H{
		"name":                "Asha Rao",
		"phone":               "9812345678",
		"razorpay_order_id":   "order_test123",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  sig[:len(sig)-1] + "0",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.Coupon{}).Count(&count)
	assert.Equal(t, int64(0), count, "no coupon may be written on signature mismatch")
}

func TestSubmitUPIClaim(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, "")

	w := doJSON(r, http.MethodPost, "/api/v1/coupons/upi", gin.H{
		"name":           "Ravi Kumar",
		"phone":          "9000000001",
		"transaction_id": "T240001",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Coupon struct {
			CouponID string `json:"couponId"`
		} `json:"coupon"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var stored models.Coupon
	require.NoError(t, db.Where("coupon_id = ?", resp.Coupon.CouponID).First(&stored).Error)
	assert.Equal(t, models.VerificationPending, stored.VerificationStatus)
}

func TestSubmitUPIClaim_DuplicateTransactionID(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	body := gin.H{
		"name":           "Ravi Kumar",
		"phone":          "9000000001",
		"transaction_id": "T240001",
	}
	first := doJSON(r, http.MethodPost, "/api/v1/coupons/upi", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(r, http.MethodPost, "/api/v1/coupons/upi", body)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "already")
}

func TestUPILink(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upi/link", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Link   string  `json:"link"`
		Amount float64 `json:"amount"`
		QR     string  `json:"qr"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Link, "upi://pay?")
	assert.Contains(t, resp.Link, "pa=wafflefiesta%40upi")
	assert.Equal(t, 50.0, resp.Amount)
	assert.True(t, strings.HasPrefix(resp.QR, "data:image/png;base64,"))
}

func TestUPILink_CustomAmount(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upi/link?amount=150", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Link   string  `json:"link"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 150.0, resp.Amount)
	assert.Contains(t, resp.Link, "am=150.00")
}

func TestCouponQR(t *testing.T) {
	db := setupTestDB(t)
	r, couponService := newTestRouter(t, db, "")

	cp, err := couponService.CreateCash(context.Background(), &coupon.CreateCashRequest{
		CustomerName: "Asha Rao",
		PhoneNumber:  "9812345678",
	}, 1, "127.0.0.1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons/"+cp.CouponID+"/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestCouponQR_NotFound(t *testing.T) {
	r, _ := newTestRouter(t, setupTestDB(t), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons/WF2026XXXXXX/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCouponCard(t *testing.T) {
	db := setupTestDB(t)
	r, couponService := newTestRouter(t, db, "")

	cp, err := couponService.CreateCash(context.Background(), &coupon.CreateCashRequest{
		CustomerName: "Asha Rao",
		PhoneNumber:  "9812345678",
	}, 1, "127.0.0.1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons/"+cp.CouponID+"/card.pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", w.Body.String()[:4])
}
