package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/orderzap")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q; want default 8080", cfg.Port)
	}
	if cfg.MercadoPagoBaseURL != "https://api.mercadopago.com" {
		t.Errorf("unexpected default MP base URL: %q", cfg.MercadoPagoBaseURL)
	}
	if cfg.TenantCacheTTL != 60 {
		t.Errorf("TenantCacheTTL = %d; want 60", cfg.TenantCacheTTL)
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error when DATABASE_URL is unset")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/orderzap")
	t.Setenv("MERCADOPAGO_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("TENANT_CACHE_TTL", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MercadoPagoBaseURL != "http://127.0.0.1:9999" {
		t.Errorf("override not applied: %q", cfg.MercadoPagoBaseURL)
	}
	if cfg.TenantCacheTTL != 300 {
		t.Errorf("TenantCacheTTL = %d; want 300", cfg.TenantCacheTTL)
	}
}
