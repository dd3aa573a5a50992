package scheduler

import (
	"context"
	"time"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/logger"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
	couponService "github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
)

// TaskHandler implements the background jobs.
type TaskHandler struct {
	couponRepo    *repository.CouponRepository
	opLogRepo     *repository.OperationLogRepository
	couponService *couponService.CouponService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(
	couponRepo *repository.CouponRepository,
	opLogRepo *repository.OperationLogRepository,
	couponSvc *couponService.CouponService,
) *TaskHandler {
	return &TaskHandler{
		couponRepo:    couponRepo,
		opLogRepo:     opLogRepo,
		couponService: couponSvc,
	}
}

// PendingVerificationDigest logs a summary of manual payments waiting
// for staff review, so a backlog shows up in the logs before anyone
// complains at the counter.
func (h *TaskHandler) PendingVerificationDigest(ctx context.Context) error {
	count, err := h.couponRepo.CountPendingVerification(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	logger.Info("manual payments awaiting verification", logger.Int64("pending", count))
	return nil
}

// RefreshStats keeps the dashboard statistics cache warm.
func (h *TaskHandler) RefreshStats(ctx context.Context) error {
	_, err := h.couponService.RefreshStats(ctx)
	return err
}

// PruneOperationLogs drops audit records older than the retention
// window.
func (h *TaskHandler) PruneOperationLogs(retention time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		deleted, err := h.opLogRepo.DeleteBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if deleted > 0 {
			logger.Info("pruned operation logs", logger.Int64("deleted", deleted))
		}
		return nil
	}
}
