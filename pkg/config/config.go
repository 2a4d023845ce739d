package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "gk"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GK_DB_DSN"
	EnvDBHost = "GK_DB_HOST"
	EnvDBUser = "GK_DB_USER"
	EnvDBName = "GK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GK_APP_ENV" required:"true"`
	Port         string `envconfig:"GK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GK_DB_DSN"`
	Driver string `envconfig:"GK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GK_DB_HOST"`
	LegacyPort     int    `envconfig:"GK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GK_DB_USER"`
	LegacyPassword string `envconfig:"GK_DB_PASSWORD"`
	LegacyName     string `envconfig:"GK_DB_NAME"`
	LegacySSLMode  string `envconfig:"GK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GK_REDIS_URL"`
	Address      string        `envconfig:"GK_REDIS_ADDR"`
	Password     string        `envconfig:"GK_REDIS_PASSWORD"`
	DB           int           `envconfig:"GK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"GK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"GK_JWT_ISSUER" required:"true"`
}

// PricingConfig carries the tunables of the pricing engine. Tax defaults to
// the 18% GST rate the factory charges wholesale buyers.
type PricingConfig struct {
	TaxPercent      float64 `envconfig:"GK_PRICING_TAX_PERCENT" default:"18"`
	OrderNumPrefix  string  `envconfig:"GK_ORDER_NUMBER_PREFIX" default:"GK"`
	MaxItemsPerCart int     `envconfig:"GK_PRICING_MAX_ITEMS_PER_CART" default:"50"`
}

// RateLimitConfig throttles authenticated traffic per actor. Zero values
// disable the corresponding limiter.
type RateLimitConfig struct {
	RetailerWindow time.Duration `envconfig:"GK_RATE_LIMIT_RETAILER_WINDOW" default:"1m"`
	RetailerLimit  int64         `envconfig:"GK_RATE_LIMIT_RETAILER_LIMIT" default:"120"`
	AdminWindow    time.Duration `envconfig:"GK_RATE_LIMIT_ADMIN_WINDOW" default:"1m"`
	AdminLimit     int64         `envconfig:"GK_RATE_LIMIT_ADMIN_LIMIT" default:"300"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GK_AUTO_MIGRATE" default:"false"`
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
