// Package config provides centralized configuration management for the
// ingestion service. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Ingest   IngestConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds settings for locating and processing the call record file.
type IngestConfig struct {
	// DataDir is the directory the download step writes call record files to (default: data)
	DataDir string `env:"INGEST_DATA_DIR" default:"data"`

	// SampleMode targets the fixed sample file instead of the latest tracked
	// download. Used for local development and smoke testing (default: false)
	SampleMode bool `env:"INGEST_SAMPLE_MODE" default:"false"`

	// SampleFile is the sample file name inside DataDir (default: sample_calls.csv)
	SampleFile string `env:"INGEST_SAMPLE_FILE" default:"sample_calls.csv"`

	// NullMarker is the literal cell value the source feed uses for absent
	// data, in addition to empty cells (default: NULL)
	NullMarker string `env:"INGEST_NULL_MARKER" default:"NULL"`

	// UnknownPlaceholder is stored for absent district/description/address
	// values (default: Unknown)
	UnknownPlaceholder string `env:"INGEST_UNKNOWN_PLACEHOLDER" default:"Unknown"`

	// ProgressInterval is how many rows to process between progress log lines (default: 500)
	ProgressInterval int `env:"INGEST_PROGRESS_INTERVAL" default:"500"`

	// Priority strings as they appear in the source feed. Anything else,
	// including absent values, maps to the unknown priority.
	PriorityNonEmergency string `env:"INGEST_PRIORITY_NON_EMERGENCY" default:"Non-Emergency"`
	PriorityLow          string `env:"INGEST_PRIORITY_LOW" default:"Low"`
	PriorityMedium       string `env:"INGEST_PRIORITY_MEDIUM" default:"Medium"`
	PriorityHigh         string `env:"INGEST_PRIORITY_HIGH" default:"High"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
