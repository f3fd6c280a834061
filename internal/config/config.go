// Package config holds the typed runtime configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

// GatewayConfig is the immutable gateway configuration: credentials, the
// test flag and request defaults.
type GatewayConfig struct {
	Login           string        `mapstructure:"login"`
	Secret          string        `mapstructure:"secret"`
	TestMode        bool          `mapstructure:"test_mode"`
	DefaultCurrency string        `mapstructure:"default_currency"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinRequests      uint32        `mapstructure:"min_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Gateway.Login == "" {
		return errors.New("gateway.login is required")
	}
	if len(c.Gateway.DefaultCurrency) != 3 || strings.ToUpper(c.Gateway.DefaultCurrency) != c.Gateway.DefaultCurrency {
		return fmt.Errorf("gateway.default_currency must be an ISO 4217 code, got %q", c.Gateway.DefaultCurrency)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive, got %s", c.Gateway.Timeout)
	}
	if c.CircuitBreaker.FailureThreshold < 0 || c.CircuitBreaker.FailureThreshold > 1 {
		return fmt.Errorf("circuit_breaker.failure_threshold must be within [0,1], got %v", c.CircuitBreaker.FailureThreshold)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}
