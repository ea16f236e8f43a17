// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Database DatabaseConfig
	Session  SessionConfig
	Export   ExportConfig
	Catalog  CatalogConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
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

// UpstreamConfig holds settings for the analytics API.
type UpstreamConfig struct {
	// BaseURL is the analytics API root, e.g. https://api.example.com (required)
	BaseURL string `env:"UPSTREAM_BASE_URL" envAlt:"API_BASE_URL" required:"true"`

	// Timeout bounds every upstream request (default: 15s)
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"15s"`

	// SyncRoles fetches role permissions from GET /roles at startup
	// when no catalog file is configured (default: true)
	SyncRoles bool `env:"UPSTREAM_SYNC_ROLES" default:"true"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without it sessions and audit stay in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// SessionConfig holds dashboard session settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 12h)
	TTL time.Duration `env:"SESSION_TTL" default:"12h"`

	// SweepInterval is how often expired sessions are purged (default: 15m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"15m"`

	// CookieName is the browser cookie holding the session ID (default: roledash_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"roledash_session"`

	// CookieSecure marks the session cookie Secure (default: false)
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`
}

// ExportConfig holds dashboard export settings.
type ExportConfig struct {
	// PDFEnabled turns on headless Chrome PDF rendering (default: true)
	PDFEnabled bool `env:"EXPORT_PDF_ENABLED" default:"true"`

	// PDFTimeout bounds a single PDF render (default: 20s)
	PDFTimeout time.Duration `env:"EXPORT_PDF_TIMEOUT" default:"20s"`

	// MaxConcurrentPDF is the maximum number of parallel PDF renders (default: 3)
	MaxConcurrentPDF int `env:"EXPORT_MAX_CONCURRENT_PDF" default:"3"`

	// MaxWait is how long to wait for a render slot (default: 30s)
	MaxWait time.Duration `env:"EXPORT_MAX_WAIT" default:"30s"`

	// Title heads PDF and XLSX exports (default: Dashboard Data)
	Title string `env:"EXPORT_TITLE" default:"Dashboard Data"`
}

// CatalogConfig holds role catalog settings.
type CatalogConfig struct {
	// Path is a YAML role catalog; empty uses the embedded catalog
	Path string `env:"ROLE_CATALOG_PATH"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute for export endpoints (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`

	// LoginLimit is requests per minute for the login form (default: 10)
	LoginLimit int `env:"RATE_LIMIT_LOGIN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
