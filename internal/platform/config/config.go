// Package config loads service settings from the environment with viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgstrings "pinpool/pkg/platform/strings"
)

// Store kinds accepted by PINPOOL_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Trace exporters accepted by OTEL_TRACES_EXPORTER.
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Config holds all configuration for the pinpool service and CLI.
type Config struct {
	Server     Server     `mapstructure:",squash"`
	Store      Store      `mapstructure:",squash"`
	Redis      Redis      `mapstructure:",squash"`
	Kafka      Kafka      `mapstructure:",squash"`
	Allocation Allocation `mapstructure:",squash"`
	Log        Log        `mapstructure:",squash"`
	Tracing    Tracing    `mapstructure:",squash"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `mapstructure:"PINPOOL_ADDR"`
	RequestTimeout time.Duration `mapstructure:"PINPOOL_REQUEST_TIMEOUT"`
}

// Store selects and addresses the allocation state store.
type Store struct {
	Kind        string `mapstructure:"PINPOOL_STORE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Table       string `mapstructure:"PINPOOL_TABLE"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
}

// Redis holds connection pool settings for the redis store.
type Redis struct {
	URL          string        `mapstructure:"REDIS_URL"`
	PoolSize     int           `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConns int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`
	KeyPrefix    string        `mapstructure:"REDIS_KEY_PREFIX"`
}

// Kafka configures the optional audit event stream. Empty Brokers disables it.
type Kafka struct {
	Brokers    []string `mapstructure:"KAFKA_BROKERS"`
	AuditTopic string   `mapstructure:"KAFKA_AUDIT_TOPIC"`
}

// Allocation tunes the orchestrator.
type Allocation struct {
	MaxRollovers      int `mapstructure:"PINPOOL_MAX_ROLLOVERS"`
	ClassifierWorkers int `mapstructure:"PINPOOL_CLASSIFIER_WORKERS"`
}

type Log struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Tracing selects where spans go. Exporter "none" disables tracing.
type Tracing struct {
	Exporter string `mapstructure:"OTEL_TRACES_EXPORTER"`
	Endpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

var keys = []string{
	"PINPOOL_ADDR", "PINPOOL_REQUEST_TIMEOUT",
	"PINPOOL_STORE", "DATABASE_URL", "PINPOOL_TABLE", "SQLITE_PATH",
	"REDIS_URL", "REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_DIAL_TIMEOUT",
	"REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT", "REDIS_KEY_PREFIX",
	"KAFKA_BROKERS", "KAFKA_AUDIT_TOPIC",
	"PINPOOL_MAX_ROLLOVERS", "PINPOOL_CLASSIFIER_WORKERS",
	"LOG_LEVEL", "LOG_FORMAT",
	"OTEL_TRACES_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
}

// Load reads configuration from environment variables, applying defaults,
// and validates the result.
func Load() (*Config, error) {
	viper.SetDefault("PINPOOL_ADDR", ":8080")
	viper.SetDefault("PINPOOL_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("PINPOOL_STORE", StoreMemory)
	viper.SetDefault("PINPOOL_TABLE", "pins")
	viper.SetDefault("SQLITE_PATH", "pinpool.db")
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	viper.SetDefault("REDIS_READ_TIMEOUT", "3s")
	viper.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	viper.SetDefault("REDIS_KEY_PREFIX", "{pinpool}")
	viper.SetDefault("KAFKA_AUDIT_TOPIC", "pinpool.audit")
	viper.SetDefault("PINPOOL_MAX_ROLLOVERS", 3)
	viper.SetDefault("PINPOOL_CLASSIFIER_WORKERS", 4)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_TRACES_EXPORTER", TraceExporterNone)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	viper.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	viper.AutomaticEnv()

	// Bind explicitly so Unmarshal sees keys that only exist in the environment
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))
	cfg.Kafka.Brokers = pkgstrings.SplitList(cfg.Kafka.Brokers)
	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown store kinds and missing connection settings.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PINPOOL_STORE=%s", StorePostgres)
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when PINPOOL_STORE=%s", StoreSQLite)
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when PINPOOL_STORE=%s", StoreRedis)
		}
	default:
		return fmt.Errorf("unknown PINPOOL_STORE %q (want memory, postgres, sqlite or redis)", c.Store.Kind)
	}
	if c.Allocation.MaxRollovers < 1 {
		return fmt.Errorf("PINPOOL_MAX_ROLLOVERS must be at least 1, got %d", c.Allocation.MaxRollovers)
	}
	if c.Allocation.ClassifierWorkers < 1 {
		return fmt.Errorf("PINPOOL_CLASSIFIER_WORKERS must be at least 1, got %d", c.Allocation.ClassifierWorkers)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		return fmt.Errorf("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.Tracing.Exporter {
	case "", TraceExporterNone, TraceExporterStdout:
	case TraceExporterOTLP:
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_TRACES_EXPORTER=%s", TraceExporterOTLP)
		}
	default:
		return fmt.Errorf("unknown OTEL_TRACES_EXPORTER %q (want none, stdout or otlp)", c.Tracing.Exporter)
	}
	return nil
}

// KafkaEnabled reports whether audit events should be streamed to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
