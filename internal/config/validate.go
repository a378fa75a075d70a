package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Validate enforces the configuration rules.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateHTTP(&c.HTTP); err != nil {
		return fmt.Errorf("http validation failed: %w", err)
	}

	if err := validateClients(&c.Clients); err != nil {
		return fmt.Errorf("clients validation failed: %w", err)
	}

	if err := validateAuth(&c.Auth); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}

	if err := validateLog(&c.Log); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	if err := validateRateLimit(&c.RateLimit); err != nil {
		return fmt.Errorf("rate limit validation failed: %w", err)
	}

	if err := validateMetrics(&c.Metrics); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}

	return nil
}

func validateHTTP(config *HTTPConfig) error {
	if _, _, err := net.SplitHostPort(config.Endpoint); err != nil {
		return fmt.Errorf("endpoint %q must be host:port: %w", config.Endpoint, err)
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"read timeout", config.ReadTimeout},
		{"write timeout", config.WriteTimeout},
		{"idle timeout", config.IdleTimeout},
		{"shutdown timeout", config.ShutdownTimeout},
	}
	for _, timeout := range timeouts {
		if timeout.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", timeout.name, timeout.value)
		}
	}

	return nil
}

func validateClients(config *ClientsConfig) error {
	endpoints := []struct {
		name     string
		endpoint string
	}{
		{"auth", config.Auth.Endpoint},
		{"users", config.Users.Endpoint},
		{"contacts", config.Contacts.Endpoint},
		{"sources", config.Sources.Endpoint},
		{"messages", config.Messages.Endpoint},
		{"topics", config.Topics.Endpoint},
	}
	for _, e := range endpoints {
		if strings.TrimSpace(e.endpoint) == "" {
			return fmt.Errorf("%s endpoint is required", e.name)
		}
	}
	return nil
}

func validateAuth(config *AuthConfig) error {
	if strings.TrimSpace(config.PublicKeyFile) == "" {
		return fmt.Errorf("public key file is required")
	}
	if config.Leeway < 0 {
		return fmt.Errorf("leeway must be non-negative, got %v", config.Leeway)
	}
	return nil
}

func validateLog(config *LogConfig) error {
	if _, err := logrus.ParseLevel(config.Level); err != nil {
		return err
	}

	switch config.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text, got %q", config.Format)
	}

	if config.AuditFile != "" {
		if config.AuditMaxSizeMB <= 0 {
			return fmt.Errorf("audit max size must be positive, got %d", config.AuditMaxSizeMB)
		}
		if config.AuditMaxBackups < 0 {
			return fmt.Errorf("audit max backups must be non-negative, got %d", config.AuditMaxBackups)
		}
	}

	return nil
}

func validateRateLimit(config *RateLimitConfig) error {
	if config.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be non-negative, got %v", config.RequestsPerSecond)
	}
	if config.RequestsPerSecond > 0 && config.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting is enabled, got %d", config.Burst)
	}
	return nil
}

func validateMetrics(config *MetricsConfig) error {
	if !config.Enabled {
		return nil
	}
	if !strings.HasPrefix(config.Path, "/") {
		return fmt.Errorf("path must start with '/', got %q", config.Path)
	}
	if strings.HasPrefix(config.Path, "/api/") {
		return fmt.Errorf("path %q collides with the API prefix", config.Path)
	}
	return nil
}
