package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort      string `envconfig:"APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogToFile    bool   `envconfig:"LOG_TO_FILE" default:"false"`
	Workdir      string `envconfig:"WORK_DIR" default:"."`
	LogDBQueries bool   `envconfig:"LOG_DB_QUERIES" default:"false"`

	// DBDriver is one of mysql, postgres or sqlite.
	DBDriver string `envconfig:"DB_DRIVER" default:"mysql"`
	DBHost   string `envconfig:"DB_HOST" default:"mysql"`
	DBPort   string `envconfig:"DB_PORT" default:"3306"`
	DBName   string `envconfig:"DB_NAME" default:"tuichain"`
	DBUser   string `envconfig:"DB_USER" default:"tuichain"`
	DBPass   string `envconfig:"DB_PASS" default:"tuichain"`
	// SQLitePath is used when DBDriver is sqlite.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"tuichain.db"`

	// RedisAddr empty disables Redis: locks and phases stay in process and
	// idempotency is off.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	IdempTTLSecs int    `envconfig:"IDEMPOTENCY_TTL_SECONDS" default:"300"`
	JWTSecret    string `envconfig:"JWT_SECRET"`

	// SettlementBackend is http or memory.
	SettlementBackend  string        `envconfig:"SETTLEMENT_BACKEND" default:"http"`
	SettlementURL      string        `envconfig:"SETTLEMENT_URL"`
	SettlementToken    string        `envconfig:"SETTLEMENT_TOKEN"`
	SettlementRetryMax int           `envconfig:"SETTLEMENT_RETRY_MAX" default:"2"`
	SettlementTimeout  time.Duration `envconfig:"SETTLEMENT_TIMEOUT" default:"30s"`
	ChainID            int64         `envconfig:"CHAIN_ID" default:"1337"`
	DaiAddress         string        `envconfig:"DAI_CONTRACT_ADDRESS"`

	CreatingClaimTTL  time.Duration `envconfig:"CREATING_CLAIM_TTL" default:"2m"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"30s"`

	// StorageBackend is gcs or memory.
	StorageBackend     string `envconfig:"STORAGE_BACKEND" default:"gcs"`
	GCSBucket          string `envconfig:"GCS_BUCKET"`
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`
	GCSPublicRead      bool   `envconfig:"GCS_PUBLIC_READ" default:"true"`

	StripeSecretKey       string `envconfig:"STRIPE_SECRET_KEY"`
	StripeReturnURL       string `envconfig:"STRIPE_RETURN_URL"`
	RequireIDVerification bool   `envconfig:"REQUIRE_ID_VERIFICATION" default:"false"`

	// EventSinks is a comma separated subset of log, redis and kafka.
	EventSinks   string `envconfig:"EVENT_SINKS" default:"log"`
	EventStream  string `envconfig:"EVENT_STREAM" default:"tuichain:events"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"tuichain.events"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
		if c.DBHost == "" || c.DBPort == "" || c.DBName == "" || c.DBUser == "" {
			return errors.New("missing database config (DB_HOST/PORT/NAME/USER)")
		}
		if _, err := net.LookupPort("tcp", c.DBPort); err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", c.DBPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}

	switch c.SettlementBackend {
	case "http":
		if c.SettlementURL == "" {
			return errors.New("missing SETTLEMENT_URL")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown SETTLEMENT_BACKEND %q", c.SettlementBackend)
	}
	if c.SettlementTimeout <= 0 {
		return errors.New("SETTLEMENT_TIMEOUT must be positive")
	}
	// a claim must outlive the call it guards
	if c.CreatingClaimTTL <= c.SettlementTimeout {
		return fmt.Errorf("CREATING_CLAIM_TTL (%s) must exceed SETTLEMENT_TIMEOUT (%s)",
			c.CreatingClaimTTL, c.SettlementTimeout)
	}
	if c.ReconcileInterval < 0 {
		return errors.New("RECONCILE_INTERVAL must not be negative")
	}

	switch c.StorageBackend {
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("missing GCS_BUCKET")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	// loans cannot be created when nobody can get verified
	if c.RequireIDVerification && c.StripeSecretKey == "" {
		return errors.New("REQUIRE_ID_VERIFICATION needs STRIPE_SECRET_KEY")
	}

	for _, s := range c.Sinks() {
		switch s {
		case "log":
		case "redis":
			if c.RedisAddr == "" {
				return errors.New("event sink redis needs REDIS_ADDR")
			}
		case "kafka":
			if c.KafkaBrokers == "" {
				return errors.New("event sink kafka needs KAFKA_BROKERS")
			}
		default:
			return fmt.Errorf("unknown event sink %q", s)
		}
	}
	return nil
}

// Sinks returns the configured event sinks, lower-cased and de-duplicated.
func (c *Config) Sinks() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range strings.Split(c.EventSinks, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (c *Config) Brokers() []string { return strings.Split(c.KafkaBrokers, ",") }

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DBHost, c.DBPort) }

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
	case "sqlite":
		return c.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"
	default:
		// parseTime needed for DATETIME
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
			c.DBUser, c.DBPass, c.dbAddr(), c.DBName)
	}
}
