//go:build wireinject
// +build wireinject

package main

import (
	"marketplace_refunds/internal/app"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/dao/mongodb"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/gateway"
	"marketplace_refunds/internal/logger"
	"marketplace_refunds/internal/logic"
	"marketplace_refunds/internal/middleware/http"
	"marketplace_refunds/internal/provider"
	"marketplace_refunds/internal/service"
	"marketplace_refunds/internal/worker"
	"marketplace_refunds/pkg/jwt"
	"marketplace_refunds/pkg/snowflake"

	"github.com/google/wire"
)

// baseProviders holds the components shared by every server process.
var baseProviders = wire.NewSet(
	wire.FieldsOf(new(*conf.AppConfig), "LogConfig", "MongodbConfig", "KetoConfig", "WorkerConfig", "RabbitMQConfig", "RedisConfig", "RateLimiterConfig", "GatewayConfig", "RefundConfig"),
	provider.ProvideAppMode,
	logger.NewLogger,
	mongodb.NewMongoDB,
	provider.ProvideDatabase,
	provider.ProvideRelationClient,
	provider.ProvidePermissionChecker,
	provider.ProvideMachineID,
	provider.ProvideRefundEventTopic,
	provider.ProvideRefundAlertTopic,
	provider.ProvideTransactionManager,
	provider.ProvideJwtGenerator,
	wire.Bind(new(http.TokenParser), new(*jwt.Manager)),
	provider.ProvideRedisNamespace,
	provider.ProvideRedisClient,
	provider.ProvideLimiterManager,
	provider.ProvideLocker,
	provider.ProvideRetryPolicy,
	provider.ProvideCredentialStore,
	provider.ProvidePublisher,
	snowflake.NewGenerator,
	mongodb.NewOrdersDAO,
	wire.Bind(new(repository.OrdersRepository), new(*mongodb.OrdersDAO)),
	mongodb.NewRefundsDAO,
	wire.Bind(new(repository.RefundsRepository), new(*mongodb.RefundsDAO)),
	mongodb.NewAuditLogDAO,
	wire.Bind(new(repository.AuditLogRepository), new(*mongodb.AuditLogDAO)),
	mongodb.NewOutboxDAO,
	wire.Bind(new(repository.OutboxRepository), new(*mongodb.OutboxDAO)),
	gateway.NewProviderClient,
	wire.Bind(new(gateway.Client), new(*gateway.ProviderClient)),
	logic.NewMQAlertHook,
	wire.Bind(new(logic.AlertHook), new(*logic.MQAlertHook)),
	logic.RefundLogicProviderSet,
)

// provideServerWorkers runs the outbox relay next to the API.
func provideServerWorkers(p *worker.OutboxProcessor) []worker.Worker {
	return []worker.Worker{p}
}

func InitializeServerApp(appConfig *conf.AppConfig, configFile provider.ConfigFile) (*app.App, func(), error) {
	wire.Build(
		baseProviders,
		wire.FieldsOf(new(*conf.AppConfig), "Port"),
		worker.NewOutboxProcessor,
		provideServerWorkers,
		service.NewRefundsHandler,
		service.NewRefundExportHandler,
		http.NewAuthMiddleware,
		provider.ProvideRefundsPermissionMiddleware,
		app.NewHttpHandlerRegister,
		conf.NewUnaryInterceptors,
		conf.NewAllowedHeaders,
		app.NewApp,
	)
	return nil, nil, nil
}
