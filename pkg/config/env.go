package config

// EnvPrefix is handed to envconfig; every field also carries its full variable name.
const EnvPrefix = "USERMGMT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EmailTransportLog     = "log"
	EmailTransportMailgun = "mailgun"
	EmailTransportPubSub  = "pubsub"

	DefaultMaxLoginAttempts = 3

	defaultSQLiteDSN = "file:usermgmt.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv        = "USERMGMT_APP_ENV"
	EnvPort          = "USERMGMT_APP_PORT"
	EnvLogLevel      = "USERMGMT_LOG_LEVEL"
	EnvPublicBaseURL = "USERMGMT_PUBLIC_BASE_URL"

	EnvDBDSN      = "USERMGMT_DB_DSN"
	EnvDBHost     = "USERMGMT_DB_HOST"
	EnvDBUser     = "USERMGMT_DB_USER"
	EnvDBName     = "USERMGMT_DB_NAME"
	EnvDBPassword = "USERMGMT_DB_PASSWORD"
	EnvUseSQLite  = "USERMGMT_USE_SQLITE"

	EnvRedisURL = "USERMGMT_REDIS_URL"

	EnvJWTSecret  = "USERMGMT_JWT_SECRET"
	EnvJWTIssuer  = "USERMGMT_JWT_ISSUER"
	EnvJWTExpMins = "USERMGMT_JWT_EXPIRATION_MINUTES"

	EnvMaxLoginAttempts = "USERMGMT_MAX_LOGIN_ATTEMPTS"

	EnvEmailTransport = "USERMGMT_EMAIL_TRANSPORT"
	EnvMailgunDomain  = "USERMGMT_MAILGUN_DOMAIN"
	EnvMailgunAPIKey  = "USERMGMT_MAILGUN_API_KEY"

	EnvGCPProjectID          = "USERMGMT_GCP_PROJECT_ID"
	EnvPubSubEmailTopic      = "USERMGMT_PUBSUB_EMAIL_TOPIC"
	EnvPubSubEmailSubscriber = "USERMGMT_PUBSUB_EMAIL_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
