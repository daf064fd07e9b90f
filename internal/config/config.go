package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/reviewpulse/pkg/config"
	"github.com/utafrali/reviewpulse/pkg/database"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"reviews"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"reviews_secret"`
	PostgresDB   string `env:"REVIEWS_DB_NAME" envDefault:"reviews_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka. An empty broker list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// RuStore API
	RuStoreAPIURL       string        `env:"RUSTORE_API_URL" envDefault:"https://api.rustore.ru"`
	RuStoreClientID     string        `env:"RUSTORE_CLIENT_ID"`
	RuStoreClientSecret string        `env:"RUSTORE_CLIENT_SECRET"`
	StoreClientTimeout  time.Duration `env:"STORE_CLIENT_TIMEOUT" envDefault:"30s"`

	// Categorization API
	LLMAPIURL        string        `env:"LLM_API_URL" envDefault:"http://localhost:8100"`
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMClientTimeout time.Duration `env:"LLM_CLIENT_TIMEOUT" envDefault:"120s"`

	// Monitoring gateway. An empty URL disables metric reporting.
	MetricsAPIURL        string        `env:"METRICS_API_URL"`
	MetricsAPIKey        string        `env:"METRICS_API_KEY"`
	MetricsClientTimeout time.Duration `env:"METRICS_CLIENT_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Store credentials must be explicitly provisioned outside development.
	if cfg.Environment != "development" {
		if cfg.RuStoreClientID == "" || cfg.RuStoreClientSecret == "" {
			return nil, fmt.Errorf("RUSTORE_CLIENT_ID and RUSTORE_CLIENT_SECRET must be set in %q mode", cfg.Environment)
		}
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY must be set in %q mode", cfg.Environment)
		}
	}

	return cfg, nil
}

// Postgres returns the connection settings for the reviews database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
	}
}

// EventsEnabled reports whether Kafka publishing is configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}
