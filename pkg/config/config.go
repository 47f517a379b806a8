package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "hekaheka"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv  = "HEKAHEKA_APP_ENV"
	EnvPort    = "HEKAHEKA_APP_PORT"
	EnvDBDSN  = "HEKAHEKA_DB_DSN"
	EnvDBHost = "HEKAHEKA_DB_HOST"
	EnvDBUser = "HEKAHEKA_DB_USER"
	EnvDBName = "HEKAHEKA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Chain        ChainConfig
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
	Env          string `envconfig:"HEKAHEKA_APP_ENV" required:"true"`
	Port         string `envconfig:"HEKAHEKA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HEKAHEKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HEKAHEKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HEKAHEKA_DB_DSN"`
	Driver string `envconfig:"HEKAHEKA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HEKAHEKA_DB_HOST"`
	LegacyPort     int    `envconfig:"HEKAHEKA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HEKAHEKA_DB_USER"`
	LegacyPassword string `envconfig:"HEKAHEKA_DB_PASSWORD"`
	LegacyName     string `envconfig:"HEKAHEKA_DB_NAME"`
	LegacySSLMode  string `envconfig:"HEKAHEKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HEKAHEKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HEKAHEKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HEKAHEKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HEKAHEKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HEKAHEKA_REDIS_URL"`
	Address      string        `envconfig:"HEKAHEKA_REDIS_ADDR"`
	Password     string        `envconfig:"HEKAHEKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"HEKAHEKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HEKAHEKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HEKAHEKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HEKAHEKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HEKAHEKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HEKAHEKA_REDIS_WRITE_TIMEOUT" default:"5s"`
	ListingTTL   time.Duration `envconfig:"HEKAHEKA_REDIS_LISTING_TTL" default:"30s"`
}

// ChainConfig holds the devnet economics. Defaults mirror the deployed
// contract constants: 0.01 ETH mint fee, 0.005 ETH listing fee, 2.5%
// platform cut, royalties capped at 10%.
type ChainConfig struct {
	MintFeeETH     string `envconfig:"HEKAHEKA_CHAIN_MINT_FEE_ETH" default:"0.01"`
	ListingFeeETH  string `envconfig:"HEKAHEKA_CHAIN_LISTING_FEE_ETH" default:"0.005"`
	PlatformFeeBps uint16 `envconfig:"HEKAHEKA_CHAIN_PLATFORM_FEE_BPS" default:"250"`
	DevAccounts    int    `envconfig:"HEKAHEKA_CHAIN_DEV_ACCOUNTS" default:"10"`
	DevFundETH     string `envconfig:"HEKAHEKA_CHAIN_DEV_FUND_ETH" default:"100"`
}

// RateLimitConfig throttles the transaction-submitting endpoints per
// client IP. A zero window or limit disables throttling.
type RateLimitConfig struct {
	TxWindow time.Duration `envconfig:"HEKAHEKA_RATE_LIMIT_TX_WINDOW" default:"1m"`
	TxLimit  int           `envconfig:"HEKAHEKA_RATE_LIMIT_TX_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HEKAHEKA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HEKAHEKA_AUTO_MIGRATE" default:"false"`
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
