package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// KetoConfig holds the Ory Keto configuration. Empty addresses disable permission checks.
type KetoConfig struct {
	ReadAddr  string `mapstructure:"read_addr"`
	WriteAddr string `mapstructure:"write_addr"`
}

// AppConfig holds the application configuration.
type AppConfig struct {
	Mode               string `mapstructure:"mode" validate:"required,oneof=dev test prod"`
	Port               int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	Version            string `mapstructure:"version"`
	TimeZone           string `mapstructure:"time_zone"`
	*LogConfig         `mapstructure:"log" validate:"required"`
	*MongodbConfig     `mapstructure:"mongodb" validate:"required"`
	*KetoConfig        `mapstructure:"keto"`
	*WorkerConfig      `mapstructure:"worker" validate:"required"`
	*RabbitMQConfig    `mapstructure:"rabbitmq" validate:"required"`
	*JwtConfig         `mapstructure:"jwt" validate:"required"`
	*RedisConfig       `mapstructure:"redis" validate:"required"`
	*RateLimiterConfig `mapstructure:"rate_limiter" validate:"required"`
	*GatewayConfig     `mapstructure:"gateway" validate:"required"`
	*RefundConfig      `mapstructure:"refund" validate:"required"`
}

// JwtConfig holds the JWT configuration.
type JwtConfig struct {
	Algorithm      string `mapstructure:"algorithm" validate:"oneof=HS256 RS256"`
	Secret         string `mapstructure:"secret"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	PublicKeyFile  string `mapstructure:"public_key_file"`
}

// MongodbConfig holds the MongoDB configuration.
type MongodbConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db" validate:"required"`
}

// LogConfig holds the logger configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// WorkerConfig holds all background worker configurations.
type WorkerConfig struct {
	Outbox  OutboxWorkerConfig  `mapstructure:"outbox"`
	Sweeper SweeperWorkerConfig `mapstructure:"sweeper"`
}

// SweeperWorkerConfig holds the configuration for the unreconciled attempt sweeper.
type SweeperWorkerConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"gte=1"`
	BatchSize       int `mapstructure:"batch_size" validate:"gte=1"`
}

// OutboxWorkerConfig holds the configuration for the outbox polling worker.
type OutboxWorkerConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"gte=1"`
	BatchSize       int `mapstructure:"batch_size" validate:"gte=1"`
	MaxRetries      int `mapstructure:"max_retries"`
}

// RabbitMQConfig holds the RabbitMQ configuration.
type RabbitMQConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	RefundEventTopic string `mapstructure:"refund_event_topic" validate:"required"`
	RefundAlertTopic string `mapstructure:"refund_alert_topic" validate:"required"`
}

// RedisConfig holds the Redis client configuration.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimiterPolicy defines the limit and interval for a policy.
type RateLimiterPolicy struct {
	Interval string `mapstructure:"interval"` // e.g., "1s", "1m", "1h"
	Limit    int    `mapstructure:"limit"`
}

// RateLimiterConfig holds all rate limiting policies.
type RateLimiterConfig struct {
	Default  RateLimiterPolicy            `mapstructure:"default"`
	Policies map[string]RateLimiterPolicy `mapstructure:"policies"`
}

// GatewayConfig holds the payment provider settings. It is reloadable at runtime.
type GatewayConfig struct {
	Provider       string `mapstructure:"provider" validate:"required,oneof=reference stripe"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	AccessToken    string `mapstructure:"access_token" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1,lte=120"`
}

// Timeout returns the bounded duration of one provider call.
func (c *GatewayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefundConfig holds the reconciliation engine settings.
type RefundConfig struct {
	LockTTLSeconds  int                `mapstructure:"lock_ttl_seconds" validate:"gte=1"`
	LockWaitSeconds int                `mapstructure:"lock_wait_seconds" validate:"gte=1"`
	PersistRetry    PersistRetryConfig `mapstructure:"persist_retry"`
}

// PersistRetryConfig bounds the retries of ledger writes after the provider confirmed a refund.
type PersistRetryConfig struct {
	InitialIntervalMillis int `mapstructure:"initial_interval_ms" validate:"gte=1"`
	MaxIntervalMillis     int `mapstructure:"max_interval_ms" validate:"gte=1"`
	MaxElapsedSeconds     int `mapstructure:"max_elapsed_seconds" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig loads the application configuration from a file and validates it.
func NewConfig(confFile string) (*AppConfig, error) {
	// Load .env file. It's okay if it doesn't exist.
	_ = godotenv.Load()

	v := newViper(confFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var conf AppConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	// Set timezone
	if conf.TimeZone != "" {
		loc, err := time.LoadLocation(conf.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone: %w", err)
		}
		time.Local = loc
	}

	return &conf, nil
}

// Validate checks the whole configuration and reports every violation at once.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.GatewayConfig.Validate(); err != nil {
		return err
	}
	if c.JwtConfig.Algorithm == "HS256" && c.JwtConfig.Secret == "" {
		return errors.New("invalid config: jwt.secret is required for HS256")
	}
	return nil
}

// Validate checks a gateway configuration on its own, as done on reload.
func (c *GatewayConfig) Validate() error {
	if c == nil {
		return errors.New("invalid gateway config: missing")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid gateway config: %w", err)
	}
	if c.Provider == "reference" && c.BaseURL == "" {
		return errors.New("invalid gateway config: base_url is required for the reference provider")
	}
	return nil
}

// WatchGatewayConfig re-reads the gateway section whenever confFile changes and hands
// every valid version to onChange. Invalid versions are reported to onError and skipped.
func WatchGatewayConfig(confFile string, onChange func(*GatewayConfig), onError func(error)) {
	v := newViper(confFile)
	if err := v.ReadInConfig(); err != nil {
		onError(fmt.Errorf("failed to read config file: %w", err))
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		var gc GatewayConfig
		if err := v.UnmarshalKey("gateway", &gc); err != nil {
			onError(fmt.Errorf("failed to unmarshal gateway config from %s: %w", e.Name, err))
			return
		}
		if err := gc.Validate(); err != nil {
			onError(err)
			return
		}
		onChange(&gc)
	})
	v.WatchConfig()
}

func newViper(confFile string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(confFile)

	// Replace dots in keys with underscores for environment variables (e.g., `gateway.access_token` -> `GATEWAY_ACCESS_TOKEN`).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
