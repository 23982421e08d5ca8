package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("PORT", "")
	t.Setenv("STORE", "")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.JWTExpiry != time.Hour {
		t.Fatalf("expected default jwt expiry 1h, got %s", cfg.JWTExpiry)
	}
	if cfg.Store != "postgres" {
		t.Fatalf("expected postgres store by default, got %q", cfg.Store)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "forever")
	t.Setenv("PORT", "eighty")

	cfg := Load()

	if cfg.JWTExpiry != defaultJWTExpiry {
		t.Fatalf("expected fallback expiry, got %s", cfg.JWTExpiry)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected fallback port, got %d", cfg.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DATABASE_URL", "postgres://x:y@db:5432/z")

	cfg := Load()

	if cfg.JWTExpiry != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.JWTExpiry)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DBURL != "postgres://x:y@db:5432/z" {
		t.Fatalf("unexpected db url %q", cfg.DBURL)
	}
}

func TestLoad_JWTSecretFallbackOnlyLocally(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Setenv("APP_ENV", "dev")
	cfg := Load()
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected dev fallback secret, got %q", cfg.JWTSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev config should validate: %v", err)
	}

	t.Setenv("APP_ENV", "prod")
	cfg = Load()
	if cfg.JWTSecret != "" {
		t.Fatalf("expected no fallback secret in prod, got %q", cfg.JWTSecret)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected prod config without JWT_SECRET to fail validation")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if err := Load().Validate(); err != nil {
		t.Fatalf("expected explicit secret to validate: %v", err)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	if got := Load().TrustedProxies; len(got) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", got)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")
	if got := Load().TrustedProxies; len(got) != 2 || got[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies %v", got)
	}
}
