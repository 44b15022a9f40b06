// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Database DatabaseConfig
	Filter   FilterConfig
	Session  SessionConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatasetConfig describes where the registry rows come from and which
// columns are facets.
type DatasetConfig struct {
	// Source is a .xlsx/.csv path or a postgres:// URL (default: Ledningsägare.xlsx)
	Source string `env:"DATASET_SOURCE" default:"Ledningsägare.xlsx"`

	// Sheet is the worksheet to read; empty means the first sheet
	Sheet string `env:"DATASET_SHEET"`

	// Table is the table to read for a database source
	Table string `env:"DATASET_TABLE"`

	// Facets are the categorical columns offered as filters, in display order
	Facets []string `env:"DATASET_FACETS" default:"Län,Företag,Typ av ledningar"`

	// NumericColumns are parsed as numbers and exported with a money format
	NumericColumns []string `env:"DATASET_NUMERIC_COLUMNS" default:"Omsättning (tkr)"`

	// Title is shown in the page header
	Title string `env:"DATASET_TITLE" default:"Ledningsägare"`
}

// DatabaseConfig holds database connection settings for a PostgreSQL source.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When set together with
	// DATASET_TABLE it takes precedence over a file DATASET_SOURCE.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// FilterConfig holds filter engine settings.
type FilterConfig struct {
	// UseIndex builds a bitmap row index over the facet columns (default: true)
	UseIndex bool `env:"FILTER_USE_INDEX" default:"true"`

	// DefaultMode is the initial combination mode: exclusive or inclusive
	DefaultMode string `env:"FILTER_DEFAULT_MODE" default:"exclusive"`
}

// SessionConfig holds per-browser session settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// CookieName is the session cookie name (default: lineowners_session)
	CookieName string `env:"SESSION_COOKIE" default:"lineowners_session"`

	// MaxSessions caps live sessions (default: 1000)
	MaxSessions int `env:"SESSION_MAX" default:"1000"`

	// SweepInterval is how often expired sessions are removed (default: 1m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of parallel exports (default: 2)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"2"`

	// MaxWait is how long to wait for an export slot (default: 10s)
	MaxWait time.Duration `env:"EXPORT_MAX_WAIT" default:"10s"`

	// FileName is the download name without timestamp or extension
	FileName string `env:"EXPORT_FILE_NAME" default:"my_dataframe"`

	// SheetName is the worksheet name in exported workbooks (default: Sheet1)
	SheetName string `env:"EXPORT_SHEET_NAME" default:"Sheet1"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ExportLimit is requests per minute for export endpoints (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// MetricsAPIKeys guards the metrics endpoint with X-API-Key when set
	MetricsAPIKeys []string `env:"METRICS_API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Path is where metrics are served (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// UsesDatabase reports whether rows are read from PostgreSQL.
func (c *Config) UsesDatabase() bool {
	return c.Database.URL != "" && c.Dataset.Table != "" || isPostgresURL(c.Dataset.Source)
}

// SourceLocation returns the effective row source: the database URL when the
// database is configured, otherwise DATASET_SOURCE.
func (c *Config) SourceLocation() string {
	if c.Database.URL != "" && c.Dataset.Table != "" {
		return c.Database.URL
	}
	return c.Dataset.Source
}
