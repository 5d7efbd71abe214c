// Package config loads application settings from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	// Debug enables the swagger UI.
	Debug bool `mapstructure:"DEBUG"`

	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	// DatabaseURL selects Postgres repositories; empty keeps everything in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr selects the redis session store; empty keeps sessions in memory.
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	OTelHost        string  `mapstructure:"OTEL_HOST"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
	LogLevel        string  `mapstructure:"LOG_LEVEL"`

	SeedDevSessions bool   `mapstructure:"SEED_DEV_SESSIONS"`
	AdminEmails     string `mapstructure:"ADMIN_EMAILS"`

	RateLimitRequests      int `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindowSeconds int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`

	PaymentGatewayURL            string `mapstructure:"PAYMENT_GATEWAY_URL"`
	PaymentGatewayTimeoutSeconds int    `mapstructure:"PAYMENT_GATEWAY_TIMEOUT_SECONDS"`

	// SessionSweepInterval enables the background expiry sweep when positive (e.g. "5m").
	SessionSweepInterval string `mapstructure:"SESSION_SWEEP_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "orderdesk")
	v.SetDefault("APP_VERSION", "2.4.1")
	v.SetDefault("DEBUG", false)
	v.SetDefault("HTTP_ADDR", ":8443")
	v.SetDefault("TLS_CERT_FILE", "")
	v.SetDefault("TLS_KEY_FILE", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("OTEL_HOST", "")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEV_SESSIONS", false)
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("PAYMENT_GATEWAY_URL", "https://payments.example.com/api")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT_SECONDS", 30)
	v.SetDefault("SESSION_SWEEP_INTERVAL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("config: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		return nil, errors.New("config: OTEL_SAMPLE_RATIO must be between 0 and 1")
	}
	if cfg.RateLimitRequests < 0 || cfg.RateLimitWindowSeconds <= 0 {
		return nil, errors.New("config: RATE_LIMIT_REQUESTS must be >= 0 and RATE_LIMIT_WINDOW_SECONDS > 0")
	}

	return &cfg, nil
}

// TLSEnabled reports whether both certificate files are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// AdminEmailList returns the lower-cased admin emails from the comma-separated setting.
func (c *Config) AdminEmailList() []string {
	if c == nil || c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToLower(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SweepInterval parses SessionSweepInterval. Returns 0 (disabled) if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.SessionSweepInterval)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// RateLimitWindow returns the rate limit window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// PaymentGatewayTimeout returns the gateway timeout as a duration.
func (c *Config) PaymentGatewayTimeout() time.Duration {
	return time.Duration(c.PaymentGatewayTimeoutSeconds) * time.Second
}
