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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Cascade      CascadeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Cron.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTFORGE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRINTFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTFORGE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"PRINTFORGE_LOG_FORMAT" default:"json"`

	CORSAllowedOrigins []string `envconfig:"PRINTFORGE_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRINTFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTFORGE_DB_DSN"`
	Driver string `envconfig:"PRINTFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTFORGE_DB_USER"`
	LegacyPassword string `envconfig:"PRINTFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PRINTFORGE_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTFORGE_REDIS_URL"`
	Address      string        `envconfig:"PRINTFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRINTFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRINTFORGE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"PRINTFORGE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PRINTFORGE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PRINTFORGE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"PRINTFORGE_PUBSUB_NOTIFICATION_TOPIC" default:"pf-notification-events"`
	NotificationSubscription string `envconfig:"PRINTFORGE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"pf-notification-email"`
}

type SendgridConfig struct {
	APIKey      string            `envconfig:"PRINTFORGE_SENDGRID_API_KEY"`
	DefaultFrom string            `envconfig:"PRINTFORGE_SENDGRID_FROM_EMAIL" default:"no-reply@printforge.io"`
	FromName    string            `envconfig:"PRINTFORGE_SENDGRID_FROM_NAME" default:"PrintForge"`
	TemplateIDs map[string]string `envconfig:"PRINTFORGE_SENDGRID_TEMPLATE_IDS"`
}

// TemplateID returns the SendGrid dynamic template bound to the named template.
func (s SendgridConfig) TemplateID(name string) (string, bool) {
	id, ok := s.TemplateIDs[name]
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return strings.TrimSpace(id), true
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"PRINTFORGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"PRINTFORGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"PRINTFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"PRINTFORGE_OUTBOX_RETENTION" default:"168h"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"PRINTFORGE_CRON_INTERVAL" default:"15m"`
	LockKey    string        `envconfig:"PRINTFORGE_CRON_LOCK_KEY" default:"pf:cron:lock"`
	LockTTL    time.Duration `envconfig:"PRINTFORGE_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"PRINTFORGE_CRON_JOB_TIMEOUT" default:"5m"`
}

// validate keeps the lease alive for the longest job; the scheduler renews
// it before each one.
func (c CronConfig) validate() error {
	if c.LockTTL <= c.JobTimeout {
		return fmt.Errorf("%s (%s) must exceed %s (%s)", EnvCronLockTTL, c.LockTTL, EnvCronJobTimeout, c.JobTimeout)
	}
	return nil
}

type CascadeConfig struct {
	LegacyURLFallback bool `envconfig:"PRINTFORGE_CASCADE_LEGACY_URL_FALLBACK" default:"true"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = defaultSQLiteDSN
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
