package logic

import (
	"context"
	"fmt"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/gateway"
	"time"

	"go.uber.org/zap"
)

// UnreconciledSweeper raises an alert for every rejected attempt whose provider outcome is unknown.
// Each row is flagged once.
type UnreconciledSweeper struct {
	refundRepo repository.RefundsRepository
	alertHook  AlertHook
	now        func() time.Time
	logger     *zap.Logger
}

func NewUnreconciledSweeper(refundRepo repository.RefundsRepository, alertHook AlertHook, logger *zap.Logger) *UnreconciledSweeper {
	return &UnreconciledSweeper{
		refundRepo: refundRepo,
		alertHook:  alertHook,
		now:        time.Now,
		logger:     logger.Named("UnreconciledSweeper"),
	}
}

// Sweep handles up to limit rows and returns how many were flagged.
func (s *UnreconciledSweeper) Sweep(ctx context.Context, limit int) (int, error) {
	refunds, err := s.refundRepo.FindUnflaggedRejections(ctx, string(gateway.KindUnknown), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find unreconciled rejections: %w", err)
	}

	flagged := 0
	for _, r := range refunds {
		s.alertHook.Raise(ctx, newAlert(constants.AlertKindUnreconciled, r, "provider outcome unknown: "+r.GatewayDetail))
		if err := s.refundRepo.MarkFlagged(ctx, r.ID, s.now()); err != nil {
			s.logger.Error("failed to flag refund", zap.String("refundID", r.ID.Hex()), zap.Error(err))
			continue
		}
		flagged++
	}
	if flagged > 0 {
		s.logger.Info("flagged unreconciled rejections", zap.Int("count", flagged))
	}
	return flagged, nil
}
