package config

const (
	EnvPrefix = "PRINTFORGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	defaultSQLiteDSN = "file:printforge.db?cache=shared"
)

const (
	EnvAppEnv   = "PRINTFORGE_APP_ENV"
	EnvPort     = "PRINTFORGE_APP_PORT"
	EnvLogLevel = "PRINTFORGE_LOG_LEVEL"

	EnvCORSAllowedOrigins = "PRINTFORGE_CORS_ALLOWED_ORIGINS"

	EnvDBDSN  = "PRINTFORGE_DB_DSN"
	EnvDBHost = "PRINTFORGE_DB_HOST"
	EnvDBUser = "PRINTFORGE_DB_USER"
	EnvDBName = "PRINTFORGE_DB_NAME"

	EnvUseSQLite = "PRINTFORGE_USE_SQLITE"

	EnvRedisURL = "PRINTFORGE_REDIS_URL"

	EnvGCPProjectID          = "PRINTFORGE_GCP_PROJECT_ID"
	EnvPubSubNotificationSub = "PRINTFORGE_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvSendgridTemplateIDs   = "PRINTFORGE_SENDGRID_TEMPLATE_IDS"
	EnvCronInterval          = "PRINTFORGE_CRON_INTERVAL"
	EnvCronLockTTL           = "PRINTFORGE_CRON_LOCK_TTL"
	EnvCronJobTimeout        = "PRINTFORGE_CRON_JOB_TIMEOUT"
	EnvCascadeLegacyFallback = "PRINTFORGE_CASCADE_LEGACY_URL_FALLBACK"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
