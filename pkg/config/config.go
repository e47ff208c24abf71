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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Email         EmailConfig
	Mailgun       MailgunConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = defaultSQLiteDSN
		}
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Email.validate(cfg.Mailgun, cfg.PubSub); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string   `envconfig:"USERMGMT_APP_ENV" required:"true"`
	Port          string   `envconfig:"USERMGMT_APP_PORT" required:"true"`
	LogLevel      string   `envconfig:"USERMGMT_LOG_LEVEL" default:"info"`
	LogWarnStack  bool     `envconfig:"USERMGMT_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string   `envconfig:"USERMGMT_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins   []string `envconfig:"USERMGMT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"USERMGMT_DB_DSN"`
	Driver string `envconfig:"USERMGMT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"USERMGMT_DB_HOST"`
	LegacyPort     int    `envconfig:"USERMGMT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"USERMGMT_DB_USER"`
	LegacyPassword string `envconfig:"USERMGMT_DB_PASSWORD"`
	LegacyName     string `envconfig:"USERMGMT_DB_NAME"`
	LegacySSLMode  string `envconfig:"USERMGMT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"USERMGMT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"USERMGMT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"USERMGMT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"USERMGMT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the store runs on the embedded driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional; an empty URL and address disable the rate limiter.
type RedisConfig struct {
	URL          string        `envconfig:"USERMGMT_REDIS_URL"`
	Address      string        `envconfig:"USERMGMT_REDIS_ADDR"`
	Password     string        `envconfig:"USERMGMT_REDIS_PASSWORD"`
	DB           int           `envconfig:"USERMGMT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"USERMGMT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"USERMGMT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"USERMGMT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"USERMGMT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"USERMGMT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"USERMGMT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"USERMGMT_JWT_ISSUER" default:"user-management"`
	ExpirationMinutes int    `envconfig:"USERMGMT_JWT_EXPIRATION_MINUTES" default:"30"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"USERMGMT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"USERMGMT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"USERMGMT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"USERMGMT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"USERMGMT_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	MaxLoginAttempts       int `envconfig:"USERMGMT_MAX_LOGIN_ATTEMPTS" default:"3"`
	VerificationTokenBytes int `envconfig:"USERMGMT_VERIFICATION_TOKEN_BYTES" default:"32"`
}

// LockThreshold returns the number of failed attempts that locks an account.
func (a AuthConfig) LockThreshold() int {
	if a.MaxLoginAttempts <= 0 {
		return DefaultMaxLoginAttempts
	}
	return a.MaxLoginAttempts
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"USERMGMT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"USERMGMT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"USERMGMT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"USERMGMT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"USERMGMT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"USERMGMT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"USERMGMT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"USERMGMT_AUTO_MIGRATE" default:"false"`
}

type EmailConfig struct {
	Transport string        `envconfig:"USERMGMT_EMAIL_TRANSPORT" default:"log"`
	From      string        `envconfig:"USERMGMT_EMAIL_FROM" default:"User Management <no-reply@example.com>"`
	Timeout   time.Duration `envconfig:"USERMGMT_EMAIL_TIMEOUT" default:"10s"`
}

// NormalizedTransport returns the lower-cased transport name, defaulting to log.
func (e EmailConfig) NormalizedTransport() string {
	t := strings.ToLower(strings.TrimSpace(e.Transport))
	if t == "" {
		return EmailTransportLog
	}
	return t
}

func (e EmailConfig) validate(mg MailgunConfig, ps PubSubConfig) error {
	switch e.NormalizedTransport() {
	case EmailTransportLog:
		return nil
	case EmailTransportMailgun:
		if mg.Domain == "" || mg.APIKey == "" {
			return fmt.Errorf("%s and %s are required for the mailgun transport", EnvMailgunDomain, EnvMailgunAPIKey)
		}
		return nil
	case EmailTransportPubSub:
		if ps.EmailTopic == "" {
			return fmt.Errorf("%s is required for the pubsub transport", EnvPubSubEmailTopic)
		}
		return nil
	default:
		return fmt.Errorf("unsupported email transport %q", e.Transport)
	}
}

type MailgunConfig struct {
	Domain                string `envconfig:"USERMGMT_MAILGUN_DOMAIN"`
	APIKey                string `envconfig:"USERMGMT_MAILGUN_API_KEY"`
	APIBase               string `envconfig:"USERMGMT_MAILGUN_API_BASE" default:"https://api.mailgun.net/v3"`
	VerifyEmailTemplate   string `envconfig:"USERMGMT_MAILGUN_TEMPLATE_VERIFY_EMAIL" default:"verify-email"`
	AccountLockedTemplate string `envconfig:"USERMGMT_MAILGUN_TEMPLATE_ACCOUNT_LOCKED" default:"account-locked"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"USERMGMT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EmailTopic        string `envconfig:"USERMGMT_PUBSUB_EMAIL_TOPIC"`
	EmailSubscription string `envconfig:"USERMGMT_PUBSUB_EMAIL_SUBSCRIPTION"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"USERMGMT_METRICS_ENABLED" default:"true"`
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
