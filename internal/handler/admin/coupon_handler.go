package admin

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/handler"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
)

// Handler serves the admin coupon-management endpoints.
type Handler struct {
	couponService *coupon.CouponService
}

func NewHandler(couponService *coupon.CouponService) *Handler {
	return &Handler{couponService: couponService}
}

// List returns a filtered page of coupons.
func (h *Handler) List(c *gin.Context) {
	page := handler.BindPagination(c)
	filter := repository.ListFilter{
		Search:             c.Query("search"),
		Status:             c.Query("status"),
		VerificationStatus: c.Query("verification_status"),
		PaymentType:        c.Query("payment_type"),
	}
	applyFilterShortcut(&filter, c.Query("filter"))

	coupons, total, err := h.couponService.List(c.Request.Context(), filter, page.GetOffset(), page.GetLimit())
	handler.MustSucceedPage(c, err, coupons, total, page.Page, page.PageSize)
}

// applyFilterShortcut maps the dashboard's single filter value onto the
// matching column filter. Unknown values and "all" leave the filter untouched.
func applyFilterShortcut(filter *repository.ListFilter, value string) {
	switch value {
	case models.CouponStatusUnused, models.CouponStatusRedeemed:
		filter.Status = value
	case models.PaymentTypeOnline, models.PaymentTypeCash:
		filter.PaymentType = value
	case models.VerificationPending, models.VerificationVerified:
		filter.VerificationStatus = value
	}
}

// Stats returns aggregate counts and revenue for the dashboard.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.couponService.GetStats(c.Request.Context())
	handler.MustSucceed(c, err, stats)
}

// CreateCash issues a cash coupon at the counter.
func (h *Handler) CreateCash(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req coupon.CreateCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and phone are required")
		return
	}

	cp, err := h.couponService.CreateCash(c.Request.Context(), &req, adminID, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrNameRequired),
			errors.Is(err, coupon.ErrNameTooLong),
			errors.Is(err, coupon.ErrPhoneInvalid):
			response.BadRequest(c, apperrors.GetAppError(err).Message)
		default:
			response.InternalError(c, "failed to create coupon")
		}
		return
	}

	response.SuccessWithMessage(c, "coupon created", cp)
}

// Verify marks a pending manual payment as confirmed by staff.
func (h *Handler) Verify(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	code, ok := handler.ParseCode(c)
	if !ok {
		return
	}

	cp, err := h.couponService.Verify(c.Request.Context(), code, adminID, c.ClientIP())
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			response.NotFound(c, "coupon not found")
			return
		}
		response.InternalError(c, "failed to verify coupon")
		return
	}

	response.SuccessWithMessage(c, "coupon verified", cp)
}

// Redeem marks a coupon as used, exactly once.
func (h *Handler) Redeem(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	code, ok := handler.ParseCode(c)
	if !ok {
		return
	}

	cp, err := h.couponService.Redeem(c.Request.Context(), code, adminID, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrCouponNotFound):
			response.NotFound(c, "coupon not found")
		case errors.Is(err, coupon.ErrCouponAlreadyRedeemed):
			response.BadRequest(c, "coupon has already been redeemed")
		case errors.Is(err, coupon.ErrCouponNotVerified):
			response.BadRequest(c, "payment has not been verified yet")
		default:
			response.InternalError(c, "failed to redeem coupon")
		}
		return
	}

	response.SuccessWithMessage(c, "coupon redeemed", cp)
}

type scanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// Scan classifies a scanned QR payload without mutating the coupon.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "payload is required")
		return
	}

	result, err := h.couponService.Scan(c.Request.Context(), req.Payload)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidQRPayload) {
			response.BadRequest(c, "unrecognized qr payload")
			return
		}
		response.InternalError(c, "failed to process scan")
		return
	}

	response.Success(c, result)
}

// RegisterRoutes mounts the coupon-management routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/coupons", h.List)
	r.GET("/coupons/stats", h.Stats)
	r.POST("/coupons", h.CreateCash)
	r.POST("/coupons/:code/verify", h.Verify)
	r.POST("/coupons/:code/redeem", h.Redeem)
	r.POST("/coupons/scan", h.Scan)
}
