// Package config loads quoteflow settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/neomorfeo/quoteflow/internal/adapter/otel"
	"github.com/neomorfeo/quoteflow/internal/logger"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Quote     QuoteConfig
	Jobs      JobsConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Env       string `envconfig:"QUOTEFLOW_APP_ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"QUOTEFLOW_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"QUOTEFLOW_LOG_FORMAT" default:"console"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path string `envconfig:"DATABASE_PATH" default:"quoteflow.db"`
}

// QuoteConfig holds the negotiation policy.
type QuoteConfig struct {
	Validity        time.Duration `envconfig:"QUOTEFLOW_QUOTE_VALIDITY" default:"720h"`
	ExtensionWindow time.Duration `envconfig:"QUOTEFLOW_QUOTE_EXTENSION_WINDOW" default:"168h"`
	Currency        string        `envconfig:"QUOTEFLOW_QUOTE_CURRENCY" default:"IDR"`
	PageSize        int           `envconfig:"QUOTEFLOW_PAGE_SIZE" default:"20"`
	MaxPageSize     int           `envconfig:"QUOTEFLOW_MAX_PAGE_SIZE" default:"100"`
}

type JobsConfig struct {
	// ExpirySweepInterval of zero disables the periodic expiry job.
	ExpirySweepInterval time.Duration `envconfig:"QUOTEFLOW_EXPIRY_SWEEP_INTERVAL" default:"15m"`
	ExpirySweepBatch    int           `envconfig:"QUOTEFLOW_EXPIRY_SWEEP_BATCH" default:"100"`
	Workers             int           `envconfig:"QUOTEFLOW_RIVER_WORKERS" default:"2"`
}

type TelemetryConfig struct {
	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"quoteflow"`
	ServiceVersion string `envconfig:"OTEL_SERVICE_VERSION" default:"0.1.0"`
	Environment    string `envconfig:"OTEL_ENVIRONMENT" default:"development"`
	Exporter       string `envconfig:"OTEL_EXPORTER" default:"stdout"`
}

// Load reads a .env file when one exists, then the process environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Quote.Validity <= 0:
		return fmt.Errorf("QUOTEFLOW_QUOTE_VALIDITY must be positive, got %s", c.Quote.Validity)
	case c.Quote.ExtensionWindow < 0:
		return fmt.Errorf("QUOTEFLOW_QUOTE_EXTENSION_WINDOW must not be negative, got %s", c.Quote.ExtensionWindow)
	case c.Quote.PageSize < 1 || c.Quote.MaxPageSize < c.Quote.PageSize:
		return fmt.Errorf("page size %d must be between 1 and max page size %d", c.Quote.PageSize, c.Quote.MaxPageSize)
	case c.Jobs.ExpirySweepInterval < 0:
		return fmt.Errorf("QUOTEFLOW_EXPIRY_SWEEP_INTERVAL must not be negative, got %s", c.Jobs.ExpirySweepInterval)
	case c.Jobs.ExpirySweepBatch < 1:
		return fmt.Errorf("QUOTEFLOW_EXPIRY_SWEEP_BATCH must be positive, got %d", c.Jobs.ExpirySweepBatch)
	case c.Jobs.Workers < 1:
		return fmt.Errorf("QUOTEFLOW_RIVER_WORKERS must be positive, got %d", c.Jobs.Workers)
	case !otel.ValidExporter(c.Telemetry.Exporter):
		return fmt.Errorf("OTEL_EXPORTER must be stdout, otlp or none, got %q", c.Telemetry.Exporter)
	}
	return nil
}

// Logger returns the logger settings. Production always logs JSON.
func (c *Config) Logger() logger.Config {
	format := c.App.LogFormat
	if c.App.IsProd() {
		format = "json"
	}
	return logger.Config{Level: c.App.LogLevel, Format: format}
}

// Otel returns the OpenTelemetry provider settings.
func (c *Config) Otel() otel.Config {
	return otel.Config{
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: c.Telemetry.ServiceVersion,
		Environment:    c.Telemetry.Environment,
		Exporter:       c.Telemetry.Exporter,
		Insecure:       c.Telemetry.Environment == AppEnvDev,
	}
}
