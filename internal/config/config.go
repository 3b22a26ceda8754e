package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Failure policies for lines that fail to parse
const (
	OnErrorFailFast = "fail-fast"
	OnErrorSkip     = "skip"
)

// Config holds all configuration for the application
type Config struct {
	// Input and output
	Input         string `yaml:"input"`     // file or directory of rotated logs
	InputBaseName string `yaml:"base_name"` // file name looked up in a directory input
	Output        string `yaml:"output"`
	Format        string `yaml:"format"` // csv or jsonl
	Overwrite     bool   `yaml:"overwrite"`

	// Conversion
	OnError       string `yaml:"on_error"` // fail-fast or skip
	StatePath     string `yaml:"state"`    // BoltDB file for resume offsets, empty disables resume
	ProgressEvery int    `yaml:"progress_every"`
	MaxLineSize   int    `yaml:"max_line_size"`

	// Observability
	LogLevel  string        `yaml:"log_level"`
	LogPretty bool          `yaml:"log_pretty"`
	Tracing   TracingConfig `yaml:"tracing"`

	// Optional sinks
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	S3         S3Config         `yaml:"s3"`
}

// TracingConfig configures the OTLP trace exporter
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc or http
}

// ClickHouseConfig configures the optional ClickHouse sink
type ClickHouseConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Table          string `yaml:"table"`
	BatchSize      int    `yaml:"batch_size"`
	FlushTimeoutMs int64  `yaml:"flush_timeout_ms"`

	RetryMaxAttempts    int     `yaml:"retry_max_attempts"`
	RetryInitialDelayMs int     `yaml:"retry_initial_delay_ms"`
	RetryMaxDelayMs     int     `yaml:"retry_max_delay_ms"`
	RetryMultiplier     float64 `yaml:"retry_multiplier"`
}

// S3Config configures uploading the exported file
type S3Config struct {
	Enabled bool          `yaml:"enabled"`
	Bucket  string        `yaml:"bucket"`
	Prefix  string        `yaml:"prefix"`
	Region  string        `yaml:"region"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Input:         "/var/log/ufw.log",
		InputBaseName: "ufw.log",
		Output:        "", // ./ufwlog.<format>
		Format:        "csv",
		OnError:       OnErrorFailFast,
		ProgressEvery: 10000,
		MaxLineSize:   1024 * 1024,
		LogLevel:      "info",
		Tracing: TracingConfig{
			Protocol: "grpc",
		},
		ClickHouse: ClickHouseConfig{
			Host:                "localhost",
			Port:                9000,
			Database:            "logs",
			Username:            "default",
			Table:               "ufw_log",
			BatchSize:           5000,
			FlushTimeoutMs:      1000,
			RetryMaxAttempts:    3,
			RetryInitialDelayMs: 100,
			RetryMaxDelayMs:     5000,
			RetryMultiplier:     2.0,
		},
		S3: S3Config{
			Region:  "us-east-1",
			Timeout: 30 * time.Second,
			Retries: 3,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then UFWLOG_* environment variables. The result is
// not validated, so that command-line flags can still be applied; call
// Validate afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Input = getEnv("UFWLOG_INPUT", c.Input)
	c.Output = getEnv("UFWLOG_OUTPUT", c.Output)
	c.Format = getEnv("UFWLOG_FORMAT", c.Format)
	c.OnError = getEnv("UFWLOG_ON_ERROR", c.OnError)
	c.StatePath = getEnv("UFWLOG_STATE", c.StatePath)
	c.LogLevel = getEnv("UFWLOG_LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvBool("UFWLOG_LOG_PRETTY", c.LogPretty)
	c.ProgressEvery = getEnvInt("UFWLOG_PROGRESS_EVERY", c.ProgressEvery)

	c.Tracing.Enabled = getEnvBool("UFWLOG_TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("UFWLOG_TRACING_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.Protocol = getEnv("UFWLOG_TRACING_PROTOCOL", c.Tracing.Protocol)

	c.ClickHouse.Enabled = getEnvBool("UFWLOG_CLICKHOUSE_ENABLED", c.ClickHouse.Enabled)
	c.ClickHouse.Host = getEnv("CLICKHOUSE_HOST", c.ClickHouse.Host)
	c.ClickHouse.Port = getEnvInt("CLICKHOUSE_PORT", c.ClickHouse.Port)
	c.ClickHouse.Database = getEnv("CLICKHOUSE_DB", c.ClickHouse.Database)
	c.ClickHouse.Username = getEnv("CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = getEnv("CLICKHOUSE_PASSWORD", c.ClickHouse.Password)

	c.S3.Enabled = getEnvBool("UFWLOG_S3_ENABLED", c.S3.Enabled)
	c.S3.Bucket = getEnv("UFWLOG_S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = getEnv("UFWLOG_S3_PREFIX", c.S3.Prefix)
	c.S3.Region = getEnv("AWS_REGION", c.S3.Region)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Input == "" {
		errs = append(errs, fmt.Errorf("input is required"))
	}
	switch strings.ToLower(c.Format) {
	case "csv", "jsonl":
	default:
		errs = append(errs, fmt.Errorf("format must be csv or jsonl, got %q", c.Format))
	}
	switch c.OnError {
	case OnErrorFailFast, OnErrorSkip:
	default:
		errs = append(errs, fmt.Errorf("on_error must be %s or %s, got %q", OnErrorFailFast, OnErrorSkip, c.OnError))
	}
	if c.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("progress_every must not be negative"))
	}
	if c.MaxLineSize <= 0 {
		errs = append(errs, fmt.Errorf("max_line_size must be positive"))
	}

	if c.Tracing.Enabled && c.Tracing.Protocol != "grpc" && c.Tracing.Protocol != "http" {
		errs = append(errs, fmt.Errorf("tracing protocol must be grpc or http"))
	}

	if c.ClickHouse.Enabled {
		if c.ClickHouse.Host == "" {
			errs = append(errs, fmt.Errorf("CLICKHOUSE_HOST is required"))
		}
		if c.ClickHouse.Port <= 0 || c.ClickHouse.Port > 65535 {
			errs = append(errs, fmt.Errorf("CLICKHOUSE_PORT must be between 1 and 65535"))
		}
		if c.ClickHouse.Database == "" || c.ClickHouse.Table == "" {
			errs = append(errs, fmt.Errorf("clickhouse database and table are required"))
		}
		if c.ClickHouse.BatchSize < 1 {
			errs = append(errs, fmt.Errorf("clickhouse batch_size must be at least 1"))
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("s3 bucket is required when upload is enabled"))
		}
		if c.S3.Retries < 1 {
			errs = append(errs, fmt.Errorf("s3 retries must be at least 1"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
