package public

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/qrcode"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/payment"
)

// Handler serves the unauthenticated checkout endpoints.
type Handler struct {
	paymentService *payment.PaymentService
	couponService  *coupon.CouponService
	qrGen          *qrcode.Generator
}

func NewHandler(paymentService *payment.PaymentService, couponService *coupon.CouponService, qrGen *qrcode.Generator) *Handler {
	return &Handler{
		paymentService: paymentService,
		couponService:  couponService,
		qrGen:          qrGen,
	}
}

// CreateOrder reserves a gateway order for the card/wallet checkout flow.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req payment.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.PlainError(c, http.StatusBadRequest, "name and phone are required")
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrNameRequired),
			errors.Is(err, coupon.ErrNameTooLong),
			errors.Is(err, coupon.ErrPhoneInvalid):
			response.PlainError(c, http.StatusBadRequest, apperrors.GetAppError(err).Message)
		case errors.Is(err, payment.ErrGatewayNotConfigured):
			response.PlainError(c, http.StatusInternalServerError, "payment gateway is not configured")
		default:
			response.PlainError(c, http.StatusInternalServerError, "failed to create payment order")
		}
		return
	}

	response.Plain(c, http.StatusOK, order)
}

type couponPayload struct {
	CouponID    string    `json:"couponId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	PaymentType string    `json:"paymentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCouponPayload(cp *models.Coupon) couponPayload {
	return couponPayload{
		CouponID:    cp.CouponID,
		Name:        cp.CustomerName,
		Phone:       cp.PhoneNumber,
		PaymentType: cp.PaymentType,
		CreatedAt:   cp.CreatedAt,
	}
}

// VerifyPayment checks the gateway signature and issues the coupon.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req payment.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.PlainError(c, http.StatusBadRequest, "missing payment verification fields")
		return
	}

	cp, err := h.paymentService.VerifyAndIssue(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSignatureMismatch):
			response.PlainError(c, http.StatusBadRequest, "payment signature verification failed")
		case errors.Is(err, coupon.ErrNameRequired),
			errors.Is(err, coupon.ErrNameTooLong),
			errors.Is(err, coupon.ErrPhoneInvalid):
			response.PlainError(c, http.StatusBadRequest, apperrors.GetAppError(err).Message)
		case errors.Is(err, coupon.ErrPaymentIDUsed):
			response.PlainError(c, http.StatusBadRequest, "this payment has already been used for a coupon")
		default:
			response.PlainError(c, http.StatusInternalServerError, "failed to issue coupon")
		}
		return
	}

	response.Plain(c, http.StatusOK, gin.H{"coupon": toCouponPayload(cp)})
}

// SubmitUPIClaim records a buyer-reported UPI payment as a pending coupon.
func (h *Handler) SubmitUPIClaim(c *gin.Context) {
	var req payment.UPIClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.PlainError(c, http.StatusBadRequest, "name, phone and transaction id are required")
		return
	}

	cp, err := h.paymentService.SubmitUPIClaim(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrNameRequired),
			errors.Is(err, coupon.ErrNameTooLong),
			errors.Is(err, coupon.ErrPhoneInvalid),
			errors.Is(err, payment.ErrTransactionIDRequired):
			response.PlainError(c, http.StatusBadRequest, apperrors.GetAppError(err).Message)
		case errors.Is(err, coupon.ErrTransactionIDUsed):
			response.PlainError(c, http.StatusBadRequest, "this transaction id has already been submitted")
		default:
			response.PlainError(c, http.StatusInternalServerError, "failed to submit payment claim")
		}
		return
	}

	response.Plain(c, http.StatusOK, gin.H{"coupon": toCouponPayload(cp)})
}

// UPILink returns the static UPI deep link shown on the purchase page,
// plus the link rendered as a scannable QR data URL.
func (h *Handler) UPILink(c *gin.Context) {
	requested, _ := strconv.ParseFloat(c.Query("amount"), 64)

	link, amount, err := h.paymentService.UPILink(c.Request.Context(), requested)
	if err != nil {
		response.PlainError(c, http.StatusInternalServerError, "upi payments are not configured")
		return
	}

	qr, err := h.qrGen.GenerateDataURL(link)
	if err != nil {
		response.PlainError(c, http.StatusInternalServerError, "failed to render payment qr")
		return
	}

	response.Plain(c, http.StatusOK, gin.H{
		"link":   link,
		"amount": amount,
		"qr":     qr,
	})
}

// CouponQR renders the coupon's QR symbol as a PNG.
func (h *Handler) CouponQR(c *gin.Context) {
	code := c.Param("code")

	png, err := h.couponService.QRCodePNG(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			response.PlainError(c, http.StatusNotFound, "coupon not found")
			return
		}
		response.PlainError(c, http.StatusInternalServerError, "failed to render qr code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// CouponCard renders a printable coupon card as a PDF.
func (h *Handler) CouponCard(c *gin.Context) {
	code := c.Param("code")

	pdf, err := h.couponService.CardPDF(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			response.PlainError(c, http.StatusNotFound, "coupon not found")
			return
		}
		response.PlainError(c, http.StatusInternalServerError, "failed to render coupon card")
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"coupon.pdf\"")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// RegisterRoutes mounts the public checkout routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/orders", h.CreateOrder)
	r.POST("/payments/verify", h.VerifyPayment)
	r.POST("/coupons/upi", h.SubmitUPIClaim)
	r.GET("/upi/link", h.UPILink)
	r.GET("/coupons/:code/qr", h.CouponQR)
	r.GET("/coupons/:code/card.pdf", h.CouponCard)
}
