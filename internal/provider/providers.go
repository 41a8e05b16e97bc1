package provider

import (
	"context"
	"fmt"
	"os"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/db"
	"marketplace_refunds/internal/gateway"
	"marketplace_refunds/internal/limiter"
	"marketplace_refunds/internal/locker"
	"marketplace_refunds/internal/logic"
	http_middleware "marketplace_refunds/internal/middleware/http"
	"marketplace_refunds/internal/mq"
	"marketplace_refunds/internal/mq/noop"
	"marketplace_refunds/internal/mq/rabbitmq"
	"marketplace_refunds/pkg/jwt"
	"marketplace_refunds/pkg/relation"
	"strconv"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// --- Type-safe configuration values for dependency injection ---

type AppName string
type AppMode string

// ConfigFile is the path the configuration was loaded from. The gateway section is watched there.
type ConfigFile string

// RedisNamespace is a custom type for the Redis key namespace.
type RedisNamespace string

// RefundsObject is the Keto object guarding the refund console.
const RefundsObject = "refunds"

func ProvideAppName(c *conf.AppConfig) AppName {
	return AppName(c.Name)
}

func ProvideAppMode(c *conf.AppConfig) AppMode {
	return AppMode(c.Mode)
}

// --- Providers for application components ---

// ProvideDatabase creates a new database instance from a client and config.
func ProvideDatabase(client *mongo.Client, cfg *conf.MongodbConfig) *mongo.Database {
	return client.Database(cfg.DB)
}

// ProvideRelationClient creates the Keto client. Empty addresses leave the matching API disabled.
func ProvideRelationClient(cfg *conf.KetoConfig) (*relation.Client, func(), error) {
	if cfg == nil {
		return relation.NewClient(relation.Config{})
	}
	return relation.NewClient(relation.Config{
		ReadAddr:  cfg.ReadAddr,
		WriteAddr: cfg.WriteAddr,
	})
}

// ProvidePermissionChecker returns nil when Keto cannot answer checks, which turns the
// permission middleware into a pass-through.
func ProvidePermissionChecker(client *relation.Client, logger *zap.Logger) http_middleware.PermissionChecker {
	if !client.CanCheck() {
		logger.Warn("Keto read address is not configured, console permission checks are disabled")
		return nil
	}
	return client
}

// ProvideRefundsPermissionMiddleware guards the refund console with the operate role.
func ProvideRefundsPermissionMiddleware(checker http_middleware.PermissionChecker, logger *zap.Logger) http_middleware.PermissionMiddleware {
	return http_middleware.NewPermissionMiddleware(checker, RefundsObject, relation.RoleOperate, logger)
}

// ProvideMachineID attempts to parse a numeric id from the hostname (e.g., for StatefulSets).
// It defaults to 1 if parsing fails, which is safe for single-instance/dev environments.
func ProvideMachineID() uint16 {
	hostname, err := os.Hostname()
	if err != nil {
		fmt.Printf("WARN: Cannot get hostname, defaulting machine id to 1: %v\n", err)
		return 1
	}

	parts := strings.Split(hostname, "-")
	if len(parts) < 2 {
		fmt.Printf("WARN: Hostname '%s' does not fit 'name-id' format, defaulting machine id to 1\n", hostname)
		return 1
	}

	id, err := strconv.ParseUint(parts[len(parts)-1], 10, 16)
	if err != nil {
		fmt.Printf("WARN: Cannot parse id from hostname '%s', defaulting machine id to 1: %v\n", hostname, err)
		return 1
	}

	return uint16(id)
}

// ProvideRefundEventTopic extracts the refund event topic from the app config.
func ProvideRefundEventTopic(cfg *conf.RabbitMQConfig) logic.RefundEventTopic {
	return logic.RefundEventTopic(cfg.RefundEventTopic)
}

// ProvideRefundAlertTopic extracts the alert topic from the app config.
func ProvideRefundAlertTopic(cfg *conf.RabbitMQConfig) logic.RefundAlertTopic {
	return logic.RefundAlertTopic(cfg.RefundAlertTopic)
}

// ProvideTransactionManager decides which TransactionManager to use based on the app mode.
func ProvideTransactionManager(mode AppMode, client *mongo.Client) db.TransactionManager {
	if mode == "dev" || mode == "test" {
		// Standalone mongod in dev has no replica set, so no transactions.
		return db.NewNoOpTransactionManager()
	}
	return db.NewMongoTransactionManager(client)
}

// ProvideLocker serializes refunds per payment. Dev runs a single process and keeps the lock in memory.
func ProvideLocker(mode AppMode, client *redis.Client, namespace RedisNamespace, cfg *conf.RefundConfig, logger *zap.Logger) locker.Locker {
	wait := time.Duration(cfg.LockWaitSeconds) * time.Second
	if mode == "dev" {
		return locker.NewKeyedMutex(wait)
	}
	ttl := time.Duration(cfg.LockTTLSeconds) * time.Second
	return locker.NewRedisLocker(client, string(namespace), ttl, wait, logger)
}

// ProvideRetryPolicy converts the persist retry settings.
func ProvideRetryPolicy(cfg *conf.RefundConfig) logic.RetryPolicy {
	return logic.RetryPolicy{
		InitialInterval: time.Duration(cfg.PersistRetry.InitialIntervalMillis) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.PersistRetry.MaxIntervalMillis) * time.Millisecond,
		MaxElapsedTime:  time.Duration(cfg.PersistRetry.MaxElapsedSeconds) * time.Second,
	}
}

// ProvideCredentialStore loads the gateway credentials and keeps them in sync with the config file.
func ProvideCredentialStore(file ConfigFile, cfg *conf.GatewayConfig, logger *zap.Logger) (*gateway.CredentialStore, error) {
	store, err := gateway.NewCredentialStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway credentials: %w", err)
	}

	log := logger.Named("GatewayConfigWatcher")
	if file != "" {
		conf.WatchGatewayConfig(string(file),
			func(gc *conf.GatewayConfig) {
				if err := store.Rotate(gc); err != nil {
					log.Error("Rejected gateway configuration", zap.Error(err))
					return
				}
				log.Info("Gateway credentials rotated", zap.String("provider", gc.Provider))
			},
			func(err error) {
				log.Error("Failed to reload gateway configuration, keeping current credentials", zap.Error(err))
			},
		)
	}
	return store, nil
}

// ProvidePublisher connects to RabbitMQ, or drops messages in dev mode.
func ProvidePublisher(mode AppMode, cfg *conf.RabbitMQConfig, logger *zap.Logger) (mq.Publisher, func(), error) {
	if mode == "dev" {
		logger.Warn("Running in dev mode, broker messages are discarded")
		p := noop.NewPublisher()
		return p, p.Close, nil
	}
	p, err := rabbitmq.NewPublisher(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	return p, p.Close, nil
}

// ProvideLimiterManager builds the rate limit policies under the app's Redis namespace.
func ProvideLimiterManager(cfg *conf.RateLimiterConfig, client *redis.Client, namespace RedisNamespace) (*limiter.Manager, error) {
	return limiter.NewManager(cfg, client, string(namespace))
}

// ProvideJwtGenerator creates a new JWT generator based on the app configuration.
func ProvideJwtGenerator(cfg *conf.AppConfig) (*jwt.Manager, error) {
	issuer := cfg.Name

	switch cfg.JwtConfig.Algorithm {
	case "HS256":
		return jwt.NewSymmetric([]byte(cfg.JwtConfig.Secret), issuer)
	case "RS256":
		privateKeyData, err := os.ReadFile(cfg.JwtConfig.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		privateKey, err := gojwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		publicKeyData, err := os.ReadFile(cfg.JwtConfig.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key file: %w", err)
		}
		publicKey, err := gojwt.ParseRSAPublicKeyFromPEM(publicKeyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}

		return jwt.NewAsymmetric(privateKey, publicKey, issuer)
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", cfg.JwtConfig.Algorithm)
	}
}

// ProvideRedisNamespace creates a namespace string for Redis keys.
func ProvideRedisNamespace(cfg *conf.AppConfig) RedisNamespace {
	return RedisNamespace(fmt.Sprintf("%s:%s:", cfg.Name, cfg.Mode))
}

// ProvideRedisClient creates and returns a new Redis client based on the application configuration.
// It also returns a cleanup function to close the connection.
func ProvideRedisClient(cfg *conf.RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cleanup := func() {
		client.Close()
	}

	return client, cleanup, nil
}
