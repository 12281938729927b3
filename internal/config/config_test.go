package config

import (
	"testing"
	"time"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:8080")
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.Server.LogLevel, "info")
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "sqlite")
	}
	if cfg.Store.DeletedTTL != 24*time.Hour {
		t.Errorf("DeletedTTL = %v, want 24h", cfg.Store.DeletedTTL)
	}
	if cfg.Store.IdempotencyTTL != 24*time.Hour {
		t.Errorf("IdempotencyTTL = %v, want 24h", cfg.Store.IdempotencyTTL)
	}
	if cfg.Auth.Mode != "static" {
		t.Errorf("Auth.Mode = %q, want %q", cfg.Auth.Mode, "static")
	}
	if !cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled should default to true")
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("Window = %v, want 1m", cfg.RateLimit.Window)
	}
}

func TestConfig_SetDefaults_OperationLimits(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	cases := []struct {
		name string
		got  int
		want int
	}{
		{"create", cfg.RateLimit.Create, 20},
		{"update", cfg.RateLimit.Update, 60},
		{"update_status", cfg.RateLimit.UpdateStatus, 60},
		{"complete", cfg.RateLimit.Complete, 30},
		{"fail", cfg.RateLimit.Fail, 30},
		{"delete", cfg.RateLimit.Delete, 20},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("RateLimit.%s = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server: ServerConfig{HTTPAddr: ":9090", LogLevel: "warn"},
		Store:  StoreConfig{Backend: "memory"},
		RateLimit: RateLimitConfig{
			Window: 30 * time.Second,
			Create: 5,
		},
	}

	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want preserved :9090", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want preserved warn", cfg.Server.LogLevel)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want preserved memory", cfg.Store.Backend)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Window = %v, want preserved 30s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Create != 5 {
		t.Errorf("Create = %d, want preserved 5", cfg.RateLimit.Create)
	}
	// Unset operations still get defaults
	if cfg.RateLimit.Update != 60 {
		t.Errorf("Update = %d, want default 60", cfg.RateLimit.Update)
	}
}

func TestConfig_SetDevDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{DevMode: true}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory in dev mode", cfg.Store.Backend)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug in dev mode", cfg.Server.LogLevel)
	}
	if len(cfg.Auth.Keys) != 1 {
		t.Fatalf("Auth.Keys len = %d, want 1 seeded dev key", len(cfg.Auth.Keys))
	}
	if cfg.Auth.Keys[0].Subject != DevSubject {
		t.Errorf("seeded subject = %q, want %q", cfg.Auth.Keys[0].Subject, DevSubject)
	}
}

func TestConfig_SetDevDefaults_Noop(t *testing.T) {
	t.Parallel()

	cfg := Config{DevMode: false}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want sqlite when dev mode off", cfg.Store.Backend)
	}
	if len(cfg.Auth.Keys) != 0 {
		t.Errorf("Auth.Keys len = %d, want 0 when dev mode off", len(cfg.Auth.Keys))
	}
}

func TestConfig_SetDevDefaults_KeepsConfiguredKeys(t *testing.T) {
	t.Parallel()

	cfg := Config{
		DevMode: true,
		Auth: AuthConfig{
			Keys: []StaticKeyConfig{{Subject: "ops", KeyHash: "sha256:" + hexDigest}},
		},
	}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if len(cfg.Auth.Keys) != 1 || cfg.Auth.Keys[0].Subject != "ops" {
		t.Errorf("configured keys should not be replaced, got %+v", cfg.Auth.Keys)
	}
}
