package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "AH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auction      AuctionConfig
	Sweep        SweepConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Auction.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AH_APP_ENV" required:"true"`
	Port         string `envconfig:"AH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AH_DB_DSN"`
	Driver string `envconfig:"AH_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AH_DB_HOST"`
	Port     int    `envconfig:"AH_DB_PORT" default:"5432"`
	User     string `envconfig:"AH_DB_USER"`
	Password string `envconfig:"AH_DB_PASSWORD"`
	Name     string `envconfig:"AH_DB_NAME"`
	SSLMode  string `envconfig:"AH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AH_REDIS_URL"`
	Address      string        `envconfig:"AH_REDIS_ADDR"`
	Password     string        `envconfig:"AH_REDIS_PASSWORD"`
	DB           int           `envconfig:"AH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// AuctionConfig carries the marketplace policy knobs. Each value seeds the
// fallback entry of the matching permission evaluator.
type AuctionConfig struct {
	SellPriceMin   decimal.Decimal `envconfig:"AH_SELL_PRICE_MIN" default:"1"`
	SellPriceMax   decimal.Decimal `envconfig:"AH_SELL_PRICE_MAX" default:"1000000"`
	SellTaxRatePct decimal.Decimal `envconfig:"AH_SELL_TAX_RATE_PCT" default:"0"`
	MaxListings    int             `envconfig:"AH_MAX_LISTINGS" default:"10"`
	ExpiryDuration time.Duration   `envconfig:"AH_EXPIRY_DURATION" default:"168h"`
	BidDurationMin time.Duration   `envconfig:"AH_BID_DURATION_MIN" default:"1m"`
	BidDurationMax time.Duration   `envconfig:"AH_BID_DURATION_MAX" default:"336h"`
	EntriesPerPage int             `envconfig:"AH_ENTRIES_PER_PAGE" default:"45"`
}

func (a AuctionConfig) validate() error {
	if a.SellPriceMin.GreaterThan(a.SellPriceMax) {
		return fmt.Errorf("sell price bounds inverted: min %s > max %s", a.SellPriceMin, a.SellPriceMax)
	}
	if a.SellTaxRatePct.IsNegative() {
		return fmt.Errorf("sell tax rate must not be negative: %s", a.SellTaxRatePct)
	}
	if a.BidDurationMin > a.BidDurationMax {
		return fmt.Errorf("bid duration bounds inverted: min %s > max %s", a.BidDurationMin, a.BidDurationMax)
	}
	if a.EntriesPerPage <= 0 {
		return fmt.Errorf("entries per page must be positive: %d", a.EntriesPerPage)
	}
	return nil
}

// SweepConfig controls the expiry/bid sweeper loop.
type SweepConfig struct {
	Horizon time.Duration `envconfig:"AH_SWEEP_HORIZON" default:"60s"`
	Ceiling time.Duration `envconfig:"AH_SWEEP_CEILING" default:"60s"`
}

// RateLimitConfig throttles write endpoints per client IP. A zero limit
// leaves the middleware off.
type RateLimitConfig struct {
	Window     time.Duration `envconfig:"AH_RATE_LIMIT_WINDOW" default:"1m"`
	WriteLimit int           `envconfig:"AH_RATE_LIMIT_WRITES_PER_IP" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AH_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"AH_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"AH_PUBSUB_EVENTS_TOPIC" default:"auctionhouse-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
		return fmt.Errorf("AH_DB_DSN is required for the sqlite driver")
	}

	missing := []string{}
	for _, pair := range [][2]string{
		{"AH_DB_HOST", db.Host},
		{"AH_DB_USER", db.User},
		{"AH_DB_NAME", db.Name},
	} {
		if pair[1] == "" {
			missing = append(missing, pair[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either AH_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
