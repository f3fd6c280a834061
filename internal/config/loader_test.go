package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("KOMOJU_GATEWAY_LOGIN", "sk_test_123")
	t.Setenv("KOMOJU_GATEWAY_SECRET", "shh")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", cfg.Gateway.Login)
	assert.Equal(t, "shh", cfg.Gateway.Secret)
	assert.True(t, cfg.Gateway.TestMode)
	assert.Equal(t, "JPY", cfg.Gateway.DefaultCurrency)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Empty(t, cfg.Gateway.BaseURL)

	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.MinRequests)
	assert.InDelta(t, 0.5, cfg.CircuitBreaker.FailureThreshold, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.CircuitBreaker.Interval)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_FileOverriddenByEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "komoju.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  login: file-login
  test_mode: false
  default_currency: USD
  base_url: http://localhost:9999/api/v1
  timeout: 5s
logging:
  level: debug
  format: console
http:
  port: 9090
`), 0o644))
	t.Setenv("KOMOJU_HTTP_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-login", cfg.Gateway.Login)
	assert.False(t, cfg.Gateway.TestMode)
	assert.Equal(t, "USD", cfg.Gateway.DefaultCurrency)
	assert.Equal(t, "http://localhost:9999/api/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 7070, cfg.HTTP.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("MissingLogin", func(t *testing.T) {
		t.Setenv("KOMOJU_GATEWAY_LOGIN", "")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.login is required")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Gateway:        GatewayConfig{Login: "l", DefaultCurrency: "JPY", Timeout: time.Second},
			CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 0.5},
			Logging:        LoggingConfig{Level: "info", Format: "json"},
			HTTP:           HTTPConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "LowercaseCurrency", mutate: func(c *Config) { c.Gateway.DefaultCurrency = "jpy" }, wantErr: "default_currency"},
		{name: "ZeroTimeout", mutate: func(c *Config) { c.Gateway.Timeout = 0 }, wantErr: "timeout"},
		{name: "ThresholdAboveOne", mutate: func(c *Config) { c.CircuitBreaker.FailureThreshold = 1.5 }, wantErr: "failure_threshold"},
		{name: "UnknownFormat", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "BadPort", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: "http.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
