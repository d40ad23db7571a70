package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cron.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCHFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCHFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCHFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCHFORGE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"MERCHFORGE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN string `envconfig:"MERCHFORGE_DB_DSN"`

	LegacyHost     string `envconfig:"MERCHFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCHFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCHFORGE_DB_USER"`
	LegacyPassword string `envconfig:"MERCHFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCHFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCHFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCHFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCHFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCHFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCHFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"MERCHFORGE_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCHFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCHFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"MERCHFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCHFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCHFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCHFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCHFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCHFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCHFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCHFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCHFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERCHFORGE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// PricingConfig carries the pricing policy and the flat-rate order additions.
// Tax and shipping are applied by order creation, never by the price calculator.
type PricingConfig struct {
	ClampNegative              bool  `envconfig:"MERCHFORGE_PRICING_CLAMP_NEGATIVE" default:"true"`
	TaxBasisPoints             int64 `envconfig:"MERCHFORGE_PRICING_TAX_BPS" default:"1800"`
	ShippingFlatCents          int64 `envconfig:"MERCHFORGE_PRICING_SHIPPING_FLAT_CENTS" default:"5000"`
	FreeShippingThresholdCents int64 `envconfig:"MERCHFORGE_PRICING_FREE_SHIPPING_THRESHOLD_CENTS" default:"50000"`
}

func (p PricingConfig) validate() error {
	if p.TaxBasisPoints < 0 || p.TaxBasisPoints > 10000 {
		return fmt.Errorf("%s must be between 0 and 10000", EnvPricingTaxBps)
	}
	if p.ShippingFlatCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvPricingShippingFlat)
	}
	if p.FreeShippingThresholdCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvPricingFreeShipping)
	}
	return nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"MERCHFORGE_IDEMPOTENCY_TTL" default:"24h"`
}

// RateLimitConfig bounds anonymous quote traffic per client IP. Zero disables the limit.
type RateLimitConfig struct {
	QuotePerMinute int `envconfig:"MERCHFORGE_QUOTE_RATE_LIMIT" default:"120"`
}

// CronConfig drives the cleanup worker.
type CronConfig struct {
	Interval                  time.Duration `envconfig:"MERCHFORGE_CRON_INTERVAL" default:"1h"`
	LockTTL                   time.Duration `envconfig:"MERCHFORGE_CRON_LOCK_TTL" default:"30m"`
	NotificationRetentionDays int           `envconfig:"MERCHFORGE_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	CartRetentionDays         int           `envconfig:"MERCHFORGE_CRON_CART_RETENTION_DAYS" default:"90"`
}

func (c CronConfig) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}

func (c CronConfig) CartRetention() time.Duration {
	return time.Duration(c.CartRetentionDays) * 24 * time.Hour
}

func (c CronConfig) validate() error {
	if c.NotificationRetentionDays <= 0 || c.CartRetentionDays <= 0 {
		return fmt.Errorf("cron retention days must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCHFORGE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
