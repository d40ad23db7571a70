package config

// EnvPrefix is passed to envconfig; every field declares its full variable name.
const EnvPrefix = "MERCHFORGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv              = "MERCHFORGE_APP_ENV"
	EnvPort                = "MERCHFORGE_APP_PORT"
	EnvDBDSN               = "MERCHFORGE_DB_DSN"
	EnvDBHost              = "MERCHFORGE_DB_HOST"
	EnvDBUser              = "MERCHFORGE_DB_USER"
	EnvDBName              = "MERCHFORGE_DB_NAME"
	EnvDBPassword          = "MERCHFORGE_DB_PASSWORD"
	EnvRedisURL            = "MERCHFORGE_REDIS_URL"
	EnvJWTSecret           = "MERCHFORGE_JWT_SECRET"
	EnvJWTIssuer           = "MERCHFORGE_JWT_ISSUER"
	EnvJWTExpMins          = "MERCHFORGE_JWT_EXPIRATION_MINUTES"
	EnvPricingClamp        = "MERCHFORGE_PRICING_CLAMP_NEGATIVE"
	EnvPricingTaxBps       = "MERCHFORGE_PRICING_TAX_BPS"
	EnvPricingShippingFlat = "MERCHFORGE_PRICING_SHIPPING_FLAT_CENTS"
	EnvPricingFreeShipping = "MERCHFORGE_PRICING_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvQuoteRateLimit      = "MERCHFORGE_QUOTE_RATE_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
