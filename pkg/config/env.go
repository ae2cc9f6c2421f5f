package config

// EnvPrefix is empty because every field carries its fully qualified variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	PaymentsProviderRazorpay = "razorpay"
)

const (
	EnvAppEnv                 = "WHOLESALEHUB_APP_ENV"
	EnvPort                   = "WHOLESALEHUB_APP_PORT"
	EnvRequestTimeout         = "WHOLESALEHUB_REQUEST_TIMEOUT"
	EnvDBDSN                  = "WHOLESALEHUB_DB_DSN"
	EnvDBDriver               = "WHOLESALEHUB_DB_DRIVER"
	EnvDBHost                 = "WHOLESALEHUB_DB_HOST"
	EnvDBUser                 = "WHOLESALEHUB_DB_USER"
	EnvDBName                 = "WHOLESALEHUB_DB_NAME"
	EnvDBPassword             = "WHOLESALEHUB_DB_PASSWORD"
	EnvRedisURL               = "WHOLESALEHUB_REDIS_URL"
	EnvJWTSecret              = "WHOLESALEHUB_JWT_SECRET"
	EnvJWTIssuer              = "WHOLESALEHUB_JWT_ISSUER"
	EnvJWTExpMins             = "WHOLESALEHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "WHOLESALEHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "WHOLESALEHUB_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "WHOLESALEHUB_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationSub  = "WHOLESALEHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPaymentsProvider       = "WHOLESALEHUB_PAYMENTS_PROVIDER"
	EnvPaymentsKeyID          = "WHOLESALEHUB_PAYMENTS_KEY_ID"
	EnvPaymentsKeySecret      = "WHOLESALEHUB_PAYMENTS_KEY_SECRET"
	EnvAllowClientPricing     = "WHOLESALEHUB_FEATURE_ALLOW_CLIENT_PRICING"
	EnvRestockOnCancel        = "WHOLESALEHUB_FEATURE_RESTOCK_ON_CANCEL"
	EnvInvoiceCurrency        = "WHOLESALEHUB_INVOICE_CURRENCY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
