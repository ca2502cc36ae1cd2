// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Source  SourceConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// RateLimitEnabled controls whether per-IP rate limiting is active (default: true)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// SourceConfig holds settings for the delimited verb source table.
type SourceConfig struct {
	// Path is the location of the source CSV file (required)
	// Supports both SOURCE_PATH and CSV_PATH env vars for compatibility
	Path string `env:"SOURCE_PATH" envAlt:"CSV_PATH" required:"true"`

	// Encodings is the ordered list of encodings to attempt when decoding
	// the source file. The first that decodes cleanly wins.
	Encodings []string `env:"SOURCE_ENCODINGS" default:"utf-8,iso-8859-7,windows-1253"`
}

// StoreConfig holds settings for the persisted verb store.
type StoreConfig struct {
	// Path is the SQLite database file location (default: verbs.db)
	Path string `env:"STORE_PATH" default:"verbs.db"`

	// Table is the name of the conjugation table (default: conjugations)
	Table string `env:"STORE_TABLE" default:"conjugations"`

	// MinSize is the minimum plausible store file size in bytes.
	// Anything smaller is treated as corrupt and rebuilt (default: 4096).
	MinSize int64 `env:"STORE_MIN_SIZE" default:"4096"`

	// Rebuild is the staleness policy: "stale" rebuilds only when the store
	// is missing or implausibly small, "always" rebuilds on every startup
	// so the latest source data is always reflected (default: stale).
	Rebuild string `env:"STORE_REBUILD" default:"stale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// RebuildAlways reports whether the staleness policy mandates an
// unconditional rebuild on startup.
func (c *StoreConfig) RebuildAlways() bool {
	return c.Rebuild == "always"
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
