// Package config loads storefront settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestBodySize int64         `mapstructure:"MAX_REQUEST_BODY_SIZE"`

	StoreBackend   string        `mapstructure:"STORE_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	DBHost         string        `mapstructure:"DB_HOST"`
	DBPort         string        `mapstructure:"DB_PORT"`
	DBUser         string        `mapstructure:"DB_USER"`
	DBPassword     string        `mapstructure:"DB_PASSWORD"`
	DBName         string        `mapstructure:"DB_NAME"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDBName    string        `mapstructure:"MONGO_DB_NAME"`
	MigrationsPath string        `mapstructure:"MIGRATIONS_PATH"`

	KafkaBrokers       string `mapstructure:"KAFKA_BROKERS"`
	OrderEventsTopic   string `mapstructure:"ORDER_EVENTS_TOPIC"`
	FulfillmentTopic   string `mapstructure:"FULFILLMENT_TOPIC"`
	FulfillmentGroupID string `mapstructure:"FULFILLMENT_GROUP_ID"`

	CatalogFile      string        `mapstructure:"CATALOG_FILE"`
	VATPercent       int64         `mapstructure:"VAT_PERCENT"`
	AutoAdvanceDelay time.Duration `mapstructure:"AUTO_ADVANCE_DELAY"`
	AutoAdvanceTick  time.Duration `mapstructure:"AUTO_ADVANCE_TICK"`
	GeocodeTimeout   time.Duration `mapstructure:"GEOCODE_TIMEOUT"`

	// SessionSweepInterval is how often sessions idle past SESSION_TTL are
	// dropped from memory.
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
}

var defaults = map[string]any{
	"ENV":                    "development",
	"HTTP_PORT":              "8080",
	"LOG_LEVEL":              "info",
	"REQUEST_TIMEOUT":        "30s",
	"SHUTDOWN_TIMEOUT":       "10s",
	"MAX_REQUEST_BODY_SIZE":  1 << 20, // 1MB
	"STORE_BACKEND":          BackendMemory,
	"SESSION_TTL":            "24h",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"SQLITE_PATH":            "storefront.db",
	"DB_HOST":                "localhost",
	"DB_PORT":                "5432",
	"DB_USER":                "postgres",
	"DB_PASSWORD":            "postgres",
	"DB_NAME":                "storefront",
	"MONGO_URI":              "mongodb://localhost:27017",
	"MONGO_DB_NAME":          "storefront",
	"MIGRATIONS_PATH":        "internal/storage/migrations",
	"KAFKA_BROKERS":          "",
	"ORDER_EVENTS_TOPIC":     "storefront.order-events",
	"FULFILLMENT_TOPIC":      "storefront.fulfillment",
	"FULFILLMENT_GROUP_ID":   "storefront",
	"CATALOG_FILE":           "",
	"VAT_PERCENT":            8,
	"AUTO_ADVANCE_DELAY":     "0s",
	"AUTO_ADVANCE_TICK":      "5s",
	"GEOCODE_TIMEOUT":        "2s",
	"SESSION_SWEEP_INTERVAL": "1m",
}

// Load reads .env (outside production) and the process environment.
// Environment variables win over .env values.
func Load() (*Config, error) {
	if os.Getenv("ENV") != "production" {
		// a missing .env is fine
		_ = godotenv.Load()
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendSQLite, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.VATPercent < 0 || c.VATPercent > 100 {
		return fmt.Errorf("VAT_PERCENT out of range: %d", c.VATPercent)
	}
	if c.AutoAdvanceDelay < 0 {
		return fmt.Errorf("AUTO_ADVANCE_DELAY must not be negative")
	}
	if c.AutoAdvanceTick <= 0 {
		return fmt.Errorf("AUTO_ADVANCE_TICK must be positive")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Brokers splits KAFKA_BROKERS. Empty means Kafka is disabled.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
