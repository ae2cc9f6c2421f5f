package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Payments      PaymentsConfig
	Invoices      InvoicesConfig
	Dashboard     DashboardConfig
	Email         EmailConfig
	Maintenance   MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string        `envconfig:"WHOLESALEHUB_APP_ENV" required:"true"`
	Port           string        `envconfig:"WHOLESALEHUB_APP_PORT" required:"true"`
	LogLevel       string        `envconfig:"WHOLESALEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack   bool          `envconfig:"WHOLESALEHUB_LOG_WARN_STACK" default:"false"`
	RequestTimeout time.Duration `envconfig:"WHOLESALEHUB_REQUEST_TIMEOUT" default:"15s"`
	CORSOrigins    []string      `envconfig:"WHOLESALEHUB_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WHOLESALEHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WHOLESALEHUB_DB_DSN"`
	Driver string `envconfig:"WHOLESALEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WHOLESALEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"WHOLESALEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WHOLESALEHUB_DB_USER"`
	LegacyPassword string `envconfig:"WHOLESALEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"WHOLESALEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"WHOLESALEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WHOLESALEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WHOLESALEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WHOLESALEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WHOLESALEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"WHOLESALEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WHOLESALEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"WHOLESALEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"WHOLESALEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WHOLESALEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WHOLESALEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WHOLESALEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WHOLESALEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WHOLESALEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"WHOLESALEHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"WHOLESALEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"WHOLESALEHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"WHOLESALEHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WHOLESALEHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WHOLESALEHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WHOLESALEHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WHOLESALEHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WHOLESALEHUB_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"WHOLESALEHUB_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"WHOLESALEHUB_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	VerifyWindow       time.Duration `envconfig:"WHOLESALEHUB_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyUserLimit    int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_VERIFY_USER_LIMIT" default:"10"`
	VerifyIPLimit      int           `envconfig:"WHOLESALEHUB_RATE_LIMIT_VERIFY_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate        bool `envconfig:"WHOLESALEHUB_AUTO_MIGRATE" default:"false"`
	AllowClientPricing bool `envconfig:"WHOLESALEHUB_FEATURE_ALLOW_CLIENT_PRICING" default:"true"`
	RestockOnCancel    bool `envconfig:"WHOLESALEHUB_FEATURE_RESTOCK_ON_CANCEL" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"WHOLESALEHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WHOLESALEHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WHOLESALEHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WHOLESALEHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"WHOLESALEHUB_PUBSUB_DOMAIN_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"WHOLESALEHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WHOLESALEHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WHOLESALEHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WHOLESALEHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PaymentsConfig struct {
	Provider        string `envconfig:"WHOLESALEHUB_PAYMENTS_PROVIDER" default:"razorpay"`
	KeyID           string `envconfig:"WHOLESALEHUB_PAYMENTS_KEY_ID" required:"true"`
	KeySecret       string `envconfig:"WHOLESALEHUB_PAYMENTS_KEY_SECRET" required:"true"`
	CheckoutBaseURL string `envconfig:"WHOLESALEHUB_PAYMENTS_CHECKOUT_BASE_URL" default:"https://api.razorpay.com/v1/checkout/embedded"`
}

func (p PaymentsConfig) validate() error {
	if !strings.EqualFold(strings.TrimSpace(p.Provider), PaymentsProviderRazorpay) {
		return fmt.Errorf("unsupported payments provider %q", p.Provider)
	}
	return nil
}

type InvoicesConfig struct {
	Currency string `envconfig:"WHOLESALEHUB_INVOICE_CURRENCY" default:"INR"`
}

type DashboardConfig struct {
	LowStockThreshold int `envconfig:"WHOLESALEHUB_LOW_STOCK_THRESHOLD" default:"10"`
}

type MaintenanceConfig struct {
	Interval                  time.Duration `envconfig:"WHOLESALEHUB_MAINTENANCE_INTERVAL" default:"24h"`
	NotificationRetentionDays int           `envconfig:"WHOLESALEHUB_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"WHOLESALEHUB_OUTBOX_RETENTION_DAYS" default:"30"`
}

type EmailConfig struct {
	SMTPHost     string `envconfig:"WHOLESALEHUB_SMTP_HOST"`
	SMTPPort     int    `envconfig:"WHOLESALEHUB_SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"WHOLESALEHUB_SMTP_USERNAME"`
	SMTPPassword string `envconfig:"WHOLESALEHUB_SMTP_PASSWORD"`
	From         string `envconfig:"WHOLESALEHUB_EMAIL_FROM" default:"no-reply@wholesalehub.local"`
}

// Enabled reports whether outbound SMTP delivery is configured.
func (e EmailConfig) Enabled() bool {
	return strings.TrimSpace(e.SMTPHost) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:wholesalehub.db?cache=shared"
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
