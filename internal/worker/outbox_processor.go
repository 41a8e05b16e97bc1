package worker

import (
	"context"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/mq"
	"time"

	"go.uber.org/zap"
)

// OutboxProcessor periodically polls the outbox collection and publishes refund events to the message queue.
type OutboxProcessor struct {
	outboxRepo repository.OutboxRepository
	publisher  mq.Publisher
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxProcessor(outboxRepo repository.OutboxRepository, publisher mq.Publisher, logger *zap.Logger, cfg *conf.WorkerConfig) *OutboxProcessor {
	return &OutboxProcessor{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger.Named("OutboxProcessor"),
		interval:   time.Duration(cfg.Outbox.IntervalSeconds) * time.Second,
		batchSize:  cfg.Outbox.BatchSize,
		maxRetries: cfg.Outbox.MaxRetries,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	p.logger.Info("Outbox processor started",
		zap.Duration("interval", p.interval),
		zap.Int("batchSize", p.batchSize),
		zap.Int("maxRetries", p.maxRetries),
	)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.processEvents(ctx)
		case <-ctx.Done():
			p.logger.Info("Outbox processor shutting down")
			return
		}
	}
}

// processEvents claims a batch of events and attempts to publish them.
func (p *OutboxProcessor) processEvents(ctx context.Context) {
	claimedEvents, err := p.outboxRepo.ClaimAndFetchEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to claim outbox events", zap.Error(err))
		return
	}

	if len(claimedEvents) > 0 {
		p.logger.Info("Claimed events for processing", zap.Int("count", len(claimedEvents)))
	}

	for _, event := range claimedEvents {
		err := p.publisher.Publish(ctx, event.Topic, []byte(event.Payload),
			mq.WithMessageID(event.Key),
			mq.WithType(event.Event),
		)
		if err != nil {
			p.handlePublishFailure(ctx, event, err)
			continue
		}

		if err := p.outboxRepo.MarkAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("Failed to mark event as processed",
				zap.String("event_id", event.ID.Hex()),
				zap.Error(err),
			)
		}
	}
}

func (p *OutboxProcessor) handlePublishFailure(ctx context.Context, event *models.OutboxMessage, publishErr error) {
	log := p.logger.With(
		zap.String("event_id", event.ID.Hex()),
		zap.String("event", event.Event),
		zap.String("key", event.Key),
		zap.Int("retries", event.Retries),
	)

	// retries counts failed attempts before this one
	if p.maxRetries > 0 && event.Retries+1 >= p.maxRetries {
		log.Error("Publishing failed too many times, moving event to dead letter", zap.Error(publishErr))
		if err := p.outboxRepo.MarkAsDeadLetter(ctx, event.ID, publishErr.Error()); err != nil {
			log.Error("Failed to dead-letter event", zap.Error(err))
		}
		return
	}

	log.Warn("Failed to publish event, will retry", zap.Error(publishErr))
	if err := p.outboxRepo.IncrementRetry(ctx, event.ID, publishErr.Error()); err != nil {
		log.Error("Failed to increment retry for event", zap.Error(err))
	}
}

var _ Worker = (*OutboxProcessor)(nil)
