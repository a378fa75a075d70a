package config

import "time"

// Config is the complete gateway configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Clients   ClientsConfig   `yaml:"clients"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// HTTPConfig configures the listening server.
type HTTPConfig struct {
	Endpoint        string        `yaml:"endpoint" env:"GATEWAY_HTTP_ENDPOINT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"GATEWAY_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"GATEWAY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"GATEWAY_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"GATEWAY_HTTP_SHUTDOWN_TIMEOUT"`
}

// ClientsConfig holds one endpoint per backend service.
type ClientsConfig struct {
	Auth     ClientConfig `yaml:"auth"`
	Users    ClientConfig `yaml:"users"`
	Contacts ClientConfig `yaml:"contacts"`
	Sources  ClientConfig `yaml:"sources"`
	Messages ClientConfig `yaml:"messages"`
	Topics   ClientConfig `yaml:"topics"`
}

// ClientConfig configures one backend client. Its environment overrides are
// read through clientsEnv, since one struct type cannot carry a different
// variable name per service.
type ClientConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	PublicKeyFile string        `yaml:"public_key_file" env:"GATEWAY_AUTH_PUBLIC_KEY_FILE"`
	RequireExpiry bool          `yaml:"require_expiry" env:"GATEWAY_AUTH_REQUIRE_EXPIRY"`
	Leeway        time.Duration `yaml:"leeway" env:"GATEWAY_AUTH_LEEWAY"`
}

// LogConfig configures the application log and the audit trail.
type LogConfig struct {
	Level  string `yaml:"level" env:"GATEWAY_LOG_LEVEL"`
	Format string `yaml:"format" env:"GATEWAY_LOG_FORMAT"` // "json" or "text"

	// AuditFile disables the audit trail when empty.
	AuditFile       string `yaml:"audit_file" env:"GATEWAY_LOG_AUDIT_FILE"`
	AuditMaxSizeMB  int    `yaml:"audit_max_size_mb" env:"GATEWAY_LOG_AUDIT_MAX_SIZE_MB"`
	AuditMaxBackups int    `yaml:"audit_max_backups" env:"GATEWAY_LOG_AUDIT_MAX_BACKUPS"`
}

// RateLimitConfig configures the global request limiter. Zero
// RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"GATEWAY_RATE_LIMIT_REQUESTS_PER_SECOND"`
	Burst             int     `yaml:"burst" env:"GATEWAY_RATE_LIMIT_BURST"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"GATEWAY_METRICS_ENABLED"`
	Path    string `yaml:"path" env:"GATEWAY_METRICS_PATH"`
}

// Default returns the built-in configuration. Backend endpoints and the
// public key have no defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Endpoint:        "0.0.0.0:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			RequireExpiry: true,
		},
		Log: LogConfig{
			Level:           "info",
			Format:          "json",
			AuditMaxSizeMB:  100,
			AuditMaxBackups: 5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 0,
			Burst:             0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
