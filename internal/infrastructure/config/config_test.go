package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jive/ledgerengine/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FX_RATES", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("expected default idempotency TTL 24h, got %s", cfg.IdempotencyTTL)
	}

	want := []string{"credit_card", "loan", "liability"}
	if len(cfg.OverdraftAllowedKinds) != len(want) {
		t.Fatalf("expected overdraft kinds %v, got %v", want, cfg.OverdraftAllowedKinds)
	}
	for i := range want {
		if cfg.OverdraftAllowedKinds[i] != want[i] {
			t.Fatalf("expected overdraft kinds %v, got %v", want, cfg.OverdraftAllowedKinds)
		}
	}

	if len(cfg.FxRates) != 0 {
		t.Fatalf("expected no fx rates by default, got %v", cfg.FxRates)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "750ms")
	t.Setenv("OVERDRAFT_ALLOWED_KINDS", "credit_card")
	t.Setenv("FX_RATES", "USD_EUR:0.92,EUR_USD:1.087")
	t.Setenv("AUDIT_BUFFER_SIZE", "16")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseLockTimeout != 750*time.Millisecond {
		t.Fatalf("expected lock timeout override, got %s", cfg.DatabaseLockTimeout)
	}

	if len(cfg.OverdraftAllowedKinds) != 1 || cfg.OverdraftAllowedKinds[0] != "credit_card" {
		t.Fatalf("expected single overdraft kind, got %v", cfg.OverdraftAllowedKinds)
	}

	if cfg.FxRates["USD_EUR"] != "0.92" || cfg.FxRates["EUR_USD"] != "1.087" {
		t.Fatalf("expected fx rates to be parsed, got %v", cfg.FxRates)
	}

	if cfg.AuditBufferSize != 16 {
		t.Fatalf("expected audit buffer override, got %d", cfg.AuditBufferSize)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "malformed duration", key: "IDEMPOTENCY_TTL", val: "soon"},
		{name: "non-positive ttl", key: "IDEMPOTENCY_TTL", val: "0s"},
		{name: "min above max", key: "DATABASE_MIN_CONNS", val: "100"},
		{name: "negative audit buffer", key: "AUDIT_BUFFER_SIZE", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.env")
	content := "HTTP_PORT=7070\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Set beforehand so t.Setenv restores them after godotenv writes them.
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("HTTP_PORT")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected port from env file, got %s", cfg.HTTPPort)
	}

	if cfg.LogLevel != "warn" {
		t.Fatalf("expected environment to win over env file, got %s", cfg.LogLevel)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("unexpected error for missing env file: %v", err)
	}
}
