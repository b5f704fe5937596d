package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	platformobservability "github.com/Apurer/equipment-checkout/internal/platform/observability"
	platformpostgres "github.com/Apurer/equipment-checkout/internal/platform/postgres"
	platformredis "github.com/Apurer/equipment-checkout/internal/platform/redis"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	PostgresDSN       string        `envconfig:"POSTGRES_DSN"`
	PostgresMaxOpen   int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	PostgresMaxIdle   int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	PostgresConnTTL   time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"5s"`
	TemporalAddress   string        `envconfig:"TEMPORAL_ADDRESS" default:"localhost:7233"`
	TemporalNamespace string        `envconfig:"TEMPORAL_NAMESPACE" default:"default"`
	TemporalDisabled  bool          `envconfig:"TEMPORAL_DISABLED" default:"false"`
	Environment       string        `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel          slog.Level    `envconfig:"LOG_LEVEL" default:"INFO"`
	OTLPEndpoint      string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure      bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	TraceSampleRatio  float64       `envconfig:"OTEL_TRACES_SAMPLE_RATIO" default:"1"`
}

// LoadConfig reads an optional .env file, then the environment, and validates basic constraints.
// Variables already set in the environment win over the .env file.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port, got %q", c.Port)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.PostgresMaxOpen < 0 || c.PostgresMaxIdle < 0 {
		return fmt.Errorf("POSTGRES_MAX_OPEN_CONNS and POSTGRES_MAX_IDLE_CONNS must not be negative")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be between 0 and 1, got %v", c.TraceSampleRatio)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) RedisOptions() platformredis.Options {
	return platformredis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

func (c Config) PostgresPool() platformpostgres.PoolOptions {
	return platformpostgres.PoolOptions{
		MaxOpenConns:    c.PostgresMaxOpen,
		MaxIdleConns:    c.PostgresMaxIdle,
		ConnMaxLifetime: c.PostgresConnTTL,
	}
}

// ObservabilityOptions names the process and points its telemetry at the configured collector.
func (c Config) ObservabilityOptions(serviceName string) platformobservability.Options {
	return platformobservability.Options{
		ServiceName:  serviceName,
		Environment:  c.Environment,
		OTLPEndpoint: c.OTLPEndpoint,
		OTLPInsecure: c.OTLPInsecure,
		SampleRatio:  c.TraceSampleRatio,
		LogLevel:     c.LogLevel,
	}
}
