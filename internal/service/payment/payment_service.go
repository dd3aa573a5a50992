// Package payment handles checkout: gateway orders, signature
// verification and manual UPI claims.
package payment

import (
	"context"
	"strings"

	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/logger"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/metrics"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/utils"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/razorpay"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/upi"
)

// Sentinel errors, carrying the shared application error codes.
var (
	ErrGatewayNotConfigured  = apperrors.ErrGatewayNotConfigured
	ErrUPINotConfigured      = apperrors.ErrUPINotConfigured
	ErrSignatureMismatch     = apperrors.ErrSignatureMismatch
	ErrTransactionIDRequired = apperrors.ErrTransactionIDRequired
	ErrOrderCreateFailed     = apperrors.ErrOrderCreateFailed
)

const receiptPrefix = "waffle"

// PaymentService drives the two payment paths.
type PaymentService struct {
	gateway         *razorpay.Client // nil when not configured
	upiBuilder      *upi.Builder     // nil when not configured
	coupons         *coupon.CouponService
	metrics         *metrics.Metrics // nil disables metrics
	couponPrice     float64
	gatewayAttempts int
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	gateway *razorpay.Client,
	upiBuilder *upi.Builder,
	coupons *coupon.CouponService,
	m *metrics.Metrics,
	couponPrice float64,
	gatewayAttempts int,
) *PaymentService {
	return &PaymentService{
		gateway:         gateway,
		upiBuilder:      upiBuilder,
		coupons:         coupons,
		metrics:         m,
		couponPrice:     couponPrice,
		gatewayAttempts: gatewayAttempts,
	}
}

// CouponPrice returns the fixed coupon price in rupees.
func (s *PaymentService) CouponPrice() float64 {
	return s.couponPrice
}

// CreateOrderRequest starts a gateway checkout. The client sends the
// displayed amount along, but the order is always priced server side.
type CreateOrderRequest struct {
	Name   string  `json:"name" binding:"required"`
	Phone  string  `json:"phone" binding:"required"`
	Amount float64 `json:"amount"`
}

// OrderResponse is consumed by the Razorpay checkout script.
type OrderResponse struct {
	OrderID       string `json:"orderId"`
	RazorpayKeyID string `json:"razorpayKeyId"`
}

// CreateOrder creates a gateway order for one coupon. Refuses to run
// without configured credentials rather than degrade silently.
func (s *PaymentService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	name, err := coupon.ValidateCustomer(req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	order, err := s.gateway.CreateOrder(ctx, &razorpay.OrderRequest{
		Amount:   utils.RupeesToPaise(s.couponPrice),
		Currency: "INR",
		Receipt:  utils.GenerateReceiptID(receiptPrefix),
		Notes: map[string]string{
			"name":  name,
			"phone": req.Phone,
		},
	})
	if err != nil {
		logger.Error("gateway order creation failed", logger.Err(err))
		return nil, ErrOrderCreateFailed
	}

	logger.Info("gateway order created", logger.OrderID(order.ID))
	return &OrderResponse{
		OrderID:       order.ID,
		RazorpayKeyID: s.gateway.KeyID(),
	}, nil
}

// VerifyRequest is the checkout callback of a completed payment.
type VerifyRequest struct {
	Name              string `json:"name" binding:"required"`
	Phone             string `json:"phone" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// VerifyAndIssue checks the gateway signature and, only on success,
// issues a verified coupon bound to the payment id. A bad signature
// issues nothing.
func (s *PaymentService) VerifyAndIssue(ctx context.Context, req *VerifyRequest) (*models.Coupon, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if s.metrics != nil {
			s.metrics.PaymentVerified("failure")
		}
		logger.Warn("payment signature mismatch",
			logger.OrderID(req.RazorpayOrderID),
			logger.PaymentID(req.RazorpayPaymentID),
		)
		return nil, ErrSignatureMismatch
	}

	paymentID := req.RazorpayPaymentID
	c, err := s.coupons.Issue(ctx, &coupon.IssueRequest{
		CustomerName:       req.Name,
		PhoneNumber:        req.Phone,
		Amount:             s.couponPrice,
		PaymentType:        models.PaymentTypeOnline,
		PaymentID:          &paymentID,
		VerificationStatus: models.VerificationVerified,
		MaxAttempts:        s.gatewayAttempts,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentVerified("success")
	}
	return c, nil
}

// UPILink returns the deep link for the manual UPI path along with the
// amount it encodes. A non-positive amount falls back to the coupon price.
func (s *PaymentService) UPILink(ctx context.Context, amount float64) (string, float64, error) {
	if s.upiBuilder == nil {
		return "", 0, ErrUPINotConfigured
	}
	if amount <= 0 {
		amount = s.couponPrice
	}
	return s.upiBuilder.PaymentLink(amount), amount, nil
}

// UPIClaimRequest is an attendee's claim of having paid by UPI.
type UPIClaimRequest struct {
	Name          string `json:"name" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// SubmitUPIClaim records a self-reported UPI payment. The claim is
// unverifiable server side, so the coupon starts pending and staff
// approve it against the merchant's UPI statement.
func (s *PaymentService) SubmitUPIClaim(ctx context.Context, req *UPIClaimRequest) (*models.Coupon, error) {
	if s.upiBuilder == nil {
		return nil, ErrUPINotConfigured
	}

	transactionID := strings.TrimSpace(req.TransactionID)
	if transactionID == "" {
		return nil, ErrTransactionIDRequired
	}

	return s.coupons.Issue(ctx, &coupon.IssueRequest{
		CustomerName:       req.Name,
		PhoneNumber:        req.Phone,
		Amount:             s.couponPrice,
		PaymentType:        models.PaymentTypeOnline,
		TransactionID:      &transactionID,
		VerificationStatus: models.VerificationPending,
	})
}
