package main

import (
	"context"
	"marketplace_refunds/cmd/consumer/handlers"
	"marketplace_refunds/internal/mq/rabbitmq"
	"marketplace_refunds/internal/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ConsumerApp holds the components of the consumer application.
type ConsumerApp struct {
	consumer *rabbitmq.Consumer
	sweeper  *worker.UnreconciledSweeperWorker
	logger   *zap.Logger
}

// NewConsumerApp creates a new consumer application and registers all handlers.
func NewConsumerApp(consumer *rabbitmq.Consumer, sweeper *worker.UnreconciledSweeperWorker, logger *zap.Logger, handlers []handlers.MessageHandler) *ConsumerApp {
	for _, h := range handlers {
		logger.Info("Registering handler", zap.String("queue", h.QueueName()))
		consumer.RegisterHandler(h.QueueName(), h.Handle)
	}

	return &ConsumerApp{
		consumer: consumer,
		sweeper:  sweeper,
		logger:   logger,
	}
}

// Run starts all background workers and blocks until the context is cancelled or a worker fails.
func (a *ConsumerApp) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting RabbitMQ consumer")
		return a.consumer.Start(gCtx)
	})

	g.Go(func() error {
		a.sweeper.Start(gCtx)
		return nil
	})

	return g.Wait()
}

// SweepOnce flags one batch of unreconciled attempts without consuming the queues.
func (a *ConsumerApp) SweepOnce(ctx context.Context) (int, error) {
	return a.sweeper.SweepOnce(ctx)
}
