package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Service    ServiceConfig
	DB         DBConfig
	Redis      RedisConfig
	Routing    RoutingConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Reputation ReputationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NETIMOB_APP_ENV" required:"true"`
	Port         string `envconfig:"NETIMOB_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"NETIMOB_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"NETIMOB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NETIMOB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NETIMOB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NETIMOB_DB_DSN"`
	Driver string `envconfig:"NETIMOB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NETIMOB_DB_HOST"`
	LegacyPort     int    `envconfig:"NETIMOB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NETIMOB_DB_USER"`
	LegacyPassword string `envconfig:"NETIMOB_DB_PASSWORD"`
	LegacyName     string `envconfig:"NETIMOB_DB_NAME"`
	LegacySSLMode  string `envconfig:"NETIMOB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NETIMOB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NETIMOB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NETIMOB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NETIMOB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"NETIMOB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NETIMOB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NETIMOB_REDIS_ADDR"`
	Password     string        `envconfig:"NETIMOB_REDIS_PASSWORD"`
	DB           int           `envconfig:"NETIMOB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NETIMOB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NETIMOB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NETIMOB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NETIMOB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NETIMOB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RoutingConfig carries the tier policy and escalation cadence. Values are
// read once per cycle and passed down explicitly, never as ambient state.
type RoutingConfig struct {
	SLAMinutes     int           `envconfig:"NETIMOB_ROUTING_SLA_MINUTES" default:"5"`
	LimitExternal  int           `envconfig:"NETIMOB_ROUTING_LIMIT_EXTERNAL" default:"3"`
	LimitInternal  int           `envconfig:"NETIMOB_ROUTING_LIMIT_INTERNAL" default:"3"`
	WorkerInterval time.Duration `envconfig:"NETIMOB_ROUTING_WORKER_INTERVAL" default:"1m"`
	BatchSize      int           `envconfig:"NETIMOB_ROUTING_BATCH_SIZE" default:"100"`
}

// SLA returns the configured response window as a duration.
func (r RoutingConfig) SLA() time.Duration {
	return time.Duration(r.SLAMinutes) * time.Minute
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NETIMOB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"NETIMOB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NETIMOB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"NETIMOB_PUBSUB_NOTIFICATION_TOPIC" default:"ni-notification-events"`
}

type ReputationConfig struct {
	BaseURL     string        `envconfig:"NETIMOB_REPUTATION_BASE_URL"`
	APIKey      string        `envconfig:"NETIMOB_REPUTATION_API_KEY"`
	Timeout     time.Duration `envconfig:"NETIMOB_REPUTATION_TIMEOUT" default:"5s"`
	MaxAttempts int           `envconfig:"NETIMOB_REPUTATION_MAX_ATTEMPTS" default:"3"`
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
