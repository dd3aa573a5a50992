package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/config"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/jwt"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/metrics"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/qrcode"
	adminHandler "github.com/wafflefiesta/waffle-fiesta-backend/internal/handler/admin"
	authHandler "github.com/wafflefiesta/waffle-fiesta-backend/internal/handler/auth"
	publicHandler "github.com/wafflefiesta/waffle-fiesta-backend/internal/handler/public"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/middleware"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/scheduler"
	authService "github.com/wafflefiesta/waffle-fiesta-backend/internal/service/auth"
	couponService "github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
	paymentService "github.com/wafflefiesta/waffle-fiesta-backend/internal/service/payment"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/razorpay"
	"github.com/wafflefiesta/waffle-fiesta-backend/pkg/upi"
)

// setupRouter wires repositories, services, handlers and middleware onto
// the engine and returns the background scheduler ready to start.
func setupRouter(r *gin.Engine, cfg *config.Config, log *zap.Logger, db *gorm.DB, redisClient *redis.Client) *scheduler.Scheduler {
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})

	adminRepo := repository.NewAdminRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	opLogRepo := repository.NewOperationLogRepository(db)

	// Gateway and UPI clients stay nil when unconfigured so the matching
	// flows fail closed instead of signing requests with empty secrets.
	var gateway *razorpay.Client
	if err := cfg.Razorpay.Validate(); err == nil {
		gateway = razorpay.NewClient(&razorpay.Config{
			KeyID:     cfg.Razorpay.KeyID,
			KeySecret: cfg.Razorpay.KeySecret,
			BaseURL:   cfg.Razorpay.BaseURL,
			Timeout:   cfg.Razorpay.TimeoutDuration(),
		})
	} else {
		log.Warn("Razorpay gateway disabled", zap.Error(err))
	}

	var upiBuilder *upi.Builder
	if err := cfg.UPI.Validate(); err == nil {
		upiBuilder = upi.NewBuilder(&upi.Config{
			MerchantID:   cfg.UPI.MerchantID,
			MerchantName: cfg.UPI.PayeeName,
		})
	} else {
		log.Warn("Manual UPI flow disabled", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init("waffle_fiesta")
	}

	tokenStore := authService.NewTokenStore(redisClient)
	authSvc := authService.NewAuthService(adminRepo, jwtManager, tokenStore)
	couponSvc := couponService.NewCouponService(
		couponRepo,
		opLogRepo,
		redisClient,
		qrcode.NewGenerator(),
		m,
		cfg.Business.Coupon.StatsCacheDuration(),
	)
	paymentSvc := paymentService.NewPaymentService(
		gateway,
		upiBuilder,
		couponSvc,
		m,
		cfg.Business.Coupon.Price,
		cfg.Business.Coupon.GatewayCodeAttempts,
	)

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORSWithOrigins(cfg.CORS.AllowedOrigins...))
	r.Use(middleware.AccessLog(log))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
		}))
	}
	if m != nil {
		r.Use(m.GinMiddleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	registerHealthRoutes(r, db, redisClient)

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		if cfg.RateLimit.Enabled {
			public.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.WindowDuration()))
		}
		publicHandler.NewHandler(paymentSvc, couponSvc, qrcode.NewGenerator()).RegisterRoutes(public)

		adminAuthGroup := v1.Group("/admin/auth")
		adminAuthed := v1.Group("/admin/auth")
		adminAuthed.Use(middleware.AdminAuth(jwtManager, tokenStore))
		authHandler.NewHandler(authSvc).RegisterRoutes(adminAuthGroup, adminAuthed)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager, tokenStore))
		adminHandler.NewHandler(couponSvc).RegisterRoutes(admin)
	}

	sched := scheduler.NewScheduler()
	tasks := scheduler.NewTaskHandler(couponRepo, opLogRepo, couponSvc)
	sched.AddTask("pending-verification-digest", cfg.Business.Coupon.DigestIntervalDuration(), tasks.PendingVerificationDigest)
	sched.AddTask("refresh-stats", cfg.Business.Coupon.StatsCacheDuration(), tasks.RefreshStats)
	sched.AddTask("prune-operation-logs", 24*time.Hour, tasks.PruneOperationLogs(90*24*time.Hour))

	return sched
}
