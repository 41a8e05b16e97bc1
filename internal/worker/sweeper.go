package worker

import (
	"context"
	"marketplace_refunds/internal/conf"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Sweeper is satisfied by logic.UnreconciledSweeper.
type Sweeper interface {
	Sweep(ctx context.Context, limit int) (int, error)
}

// UnreconciledSweeperWorker periodically flags rejected attempts whose provider outcome is unknown.
type UnreconciledSweeperWorker struct {
	sweeper   Sweeper
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

func NewUnreconciledSweeperWorker(sweeper Sweeper, logger *zap.Logger, cfg *conf.WorkerConfig) *UnreconciledSweeperWorker {
	return &UnreconciledSweeperWorker{
		sweeper:   sweeper,
		logger:    logger.Named("UnreconciledSweeperWorker"),
		interval:  time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second,
		batchSize: cfg.Sweeper.BatchSize,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *UnreconciledSweeperWorker) Start(ctx context.Context) {
	w.logger.Info("Starting unreconciled sweeper", zap.Duration("interval", w.interval), zap.Int("batchSize", w.batchSize))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Unreconciled sweeper shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// SweepOnce runs a single batch outside the ticker loop.
func (w *UnreconciledSweeperWorker) SweepOnce(ctx context.Context) (int, error) {
	return w.sweeper.Sweep(ctx, w.batchSize)
}

func (w *UnreconciledSweeperWorker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in unreconciled sweeper",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	flagged, err := w.SweepOnce(ctx)
	if err != nil {
		w.logger.Error("Failed to sweep unreconciled attempts", zap.Error(err))
		return
	}
	if flagged > 0 {
		w.logger.Warn("Flagged unreconciled refund attempts", zap.Int("count", flagged))
	}
}

var _ Worker = (*UnreconciledSweeperWorker)(nil)
