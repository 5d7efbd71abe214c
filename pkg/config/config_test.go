package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8443" {
		t.Fatalf("expected default addr :8443, got %q", cfg.HTTPAddr)
	}
	if cfg.TLSEnabled() {
		t.Fatal("TLS should be disabled by default")
	}
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow() != time.Minute {
		t.Fatalf("unexpected rate limit %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow())
	}
	if cfg.SweepInterval() != 0 {
		t.Fatalf("sweep should be disabled, got %v", cfg.SweepInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ,ops@example.com")
	t.Setenv("SESSION_SWEEP_INTERVAL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.HTTPAddr)
	}
	admins := cfg.AdminEmailList()
	if len(admins) != 2 || admins[0] != "admin@example.com" || admins[1] != "ops@example.com" {
		t.Fatalf("unexpected admin list %v", admins)
	}
	if cfg.SweepInterval() != 5*time.Minute {
		t.Fatalf("expected 5m sweep, got %v", cfg.SweepInterval())
	}
}

func TestLoadRejectsHalfTLS(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TLS_CERT_FILE", "certs/server.crt")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when only the certificate is set")
	}
}
