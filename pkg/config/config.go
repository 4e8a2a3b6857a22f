// Package config reads service settings from SABJI_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

const (
	EnvPrefix = "SABJI"

	AppEnvDev  = "dev"
	AppEnvTest = "test"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv                 = "SABJI_APP_ENV"
	EnvPort                   = "SABJI_APP_PORT"
	EnvDBDSN                  = "SABJI_DB_DSN"
	EnvDBHost                 = "SABJI_DB_HOST"
	EnvDBUser                 = "SABJI_DB_USER"
	EnvDBName                 = "SABJI_DB_NAME"
	EnvRedisURL               = "SABJI_REDIS_URL"
	EnvJWTSecret              = "SABJI_JWT_SECRET"
	EnvJWTIssuer              = "SABJI_JWT_ISSUER"
	EnvJWTExpMins             = "SABJI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SABJI_REFRESH_TOKEN_TTL_MINUTES"
	EnvCartTTL                = "SABJI_CART_TTL"
	EnvOutboxBatchSize        = "SABJI_OUTBOX_PUBLISH_BATCH_SIZE"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Razorpay      RazorpayConfig
	Cart          CartConfig
	Orders        OrdersConfig
	Cron          CronConfig
	CORS          CORSConfig
}

// Load parses the environment, derives the database DSN when only its parts
// are set and reports every invalid setting at once.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.resolveDSN(); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) check() error {
	var errs error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	positive(EnvJWTExpMins, int64(c.JWT.ExpirationMinutes))
	positive(EnvCartTTL, int64(c.Cart.TTL))
	positive("SABJI_ORDERS_UNPAID_TTL", int64(c.Orders.UnpaidTTL))
	positive(EnvOutboxBatchSize, int64(c.Outbox.BatchSize))
	positive("SABJI_OUTBOX_MAX_ATTEMPTS", int64(c.Outbox.MaxAttempts))
	positive("SABJI_ARGON_KEY_LEN", int64(c.Password.ArgonKeyLen))

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = multierr.Append(errs, fmt.Errorf("SABJI_DB_DRIVER %q is not supported", c.DB.Driver))
	}
	if c.App.IsProd() && c.DB.Driver != "postgres" {
		errs = multierr.Append(errs, fmt.Errorf("prod requires the postgres driver"))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"SABJI_APP_ENV" required:"true"`
	Port         string `envconfig:"SABJI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SABJI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SABJI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// AllowsAdminBootstrap gates the unauthenticated admin signup endpoint.
func (a AppConfig) AllowsAdminBootstrap() bool {
	return a.IsDev() || strings.EqualFold(a.Env, AppEnvTest)
}

// ServiceConfig.Kind is overwritten by each binary at startup.
type ServiceConfig struct {
	Kind string `envconfig:"SABJI_SERVICE_KIND" default:"api"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SABJI_AUTO_MIGRATE" default:"false"`
}
