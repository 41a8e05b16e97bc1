//go:build wireinject
// +build wireinject

package main

import (
	"marketplace_refunds/cmd/consumer/handlers"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/dao/mongodb"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/logger"
	"marketplace_refunds/internal/logic"
	"marketplace_refunds/internal/mq/rabbitmq"
	"marketplace_refunds/internal/provider"
	"marketplace_refunds/internal/worker"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// provideHandlers collects all individual MessageHandlers into a slice.
func provideHandlers(alertHandler *handlers.RefundAlertHandler) []handlers.MessageHandler {
	return []handlers.MessageHandler{
		alertHandler,
	}
}

// provideConsumer ties the broker connection to the injector cleanup.
func provideConsumer(cfg *conf.RabbitMQConfig, logger *zap.Logger) (*rabbitmq.Consumer, func(), error) {
	c, err := rabbitmq.NewConsumer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// InitializeConsumerApp creates the consumer application and its dependencies.
func InitializeConsumerApp(appConfig *conf.AppConfig) (*ConsumerApp, func(), error) {
	wire.Build(
		// Config Providers
		wire.FieldsOf(new(*conf.AppConfig), "LogConfig", "MongodbConfig", "RabbitMQConfig", "WorkerConfig"),
		provider.ProvideAppMode,

		// Common Components
		logger.NewLogger,
		mongodb.NewMongoDB,
		provider.ProvideDatabase,
		provider.ProvidePublisher,
		provider.ProvideRefundAlertTopic,

		// DAO Layer
		mongodb.NewRefundsDAO,
		wire.Bind(new(repository.RefundsRepository), new(*mongodb.RefundsDAO)),
		mongodb.NewAlertsDAO,
		wire.Bind(new(repository.AlertRepository), new(*mongodb.AlertsDAO)),

		// Logic Layer
		logic.NewMQAlertHook,
		wire.Bind(new(logic.AlertHook), new(*logic.MQAlertHook)),
		logic.NewUnreconciledSweeper,
		wire.Bind(new(worker.Sweeper), new(*logic.UnreconciledSweeper)),

		// MQ Consumer & Workers
		provideConsumer,
		worker.NewUnreconciledSweeperWorker,

		// Handlers
		handlers.NewRefundAlertHandler,
		provideHandlers,

		// Final App
		NewConsumerApp,
	)
	return nil, nil, nil
}
