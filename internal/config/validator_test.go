package config

import (
	"strings"
	"testing"
)

// hexDigest is a syntactically valid SHA-256 digest for test fixtures.
const hexDigest = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	cfg := &Config{
		Auth: AuthConfig{
			Mode: "static",
			Keys: []StaticKeyConfig{{Subject: "admin", KeyHash: "sha256:" + hexDigest}},
		},
	}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_BareHexKeyHash(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys[0].KeyHash = hexDigest

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with bare hex hash unexpected error: %v", err)
	}
}

func TestValidate_Argon2idKeyHash(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys[0].KeyHash = "$argon2id$v=19$m=48128,t=1,p=1$c29tZXNhbHQ$aGFzaGhhc2hoYXNoaGFzaA"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with argon2id hash unexpected error: %v", err)
	}
}

func TestValidate_InvalidKeyHash(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys[0].KeyHash = "plaintext-key"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "KeyHash") {
		t.Errorf("error = %q, want to contain 'KeyHash'", err.Error())
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys[0].Subject = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Subject") {
		t.Errorf("error = %q, want to contain 'Subject'", err.Error())
	}
}

func TestValidate_StaticModeWithoutKeys(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "at least one key") {
		t.Errorf("error = %q, want to contain 'at least one key'", err.Error())
	}
}

func TestValidate_OIDCModeRequiresIssuerAndAudience(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Mode = "oidc"
	cfg.Auth.Keys = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing issuer, got nil")
	}
	if !strings.Contains(err.Error(), "issuer") {
		t.Errorf("error = %q, want to contain 'issuer'", err.Error())
	}

	cfg.Auth.OIDC.Issuer = "https://auth.example.com/realms/desk"
	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing audience, got nil")
	}
	if !strings.Contains(err.Error(), "audience") {
		t.Errorf("error = %q, want to contain 'audience'", err.Error())
	}

	cfg.Auth.OIDC.Audience = "sessiondesk-admin"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with full oidc config unexpected error: %v", err)
	}
}

func TestValidate_InvalidAuthMode(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Mode = "ldap"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("error = %q, want to contain 'must be one of'", err.Error())
	}
}

func TestValidate_DuplicateSubjects(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Auth.Keys = append(cfg.Auth.Keys, StaticKeyConfig{
		Subject: "admin",
		KeyHash: "sha256:" + hexDigest,
	})

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate subject") {
		t.Errorf("error = %q, want to contain 'duplicate subject'", err.Error())
	}
}

func TestValidate_InvalidStoreBackend(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Store.Backend = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Store.Backend") {
		t.Errorf("error = %q, want to contain 'Store.Backend'", err.Error())
	}
}

func TestValidate_InvalidHTTPAddr(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Server.HTTPAddr = "not an address"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "host:port") {
		t.Errorf("error = %q, want to contain 'host:port'", err.Error())
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.RateLimit.Create = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "RateLimit.Create") {
		t.Errorf("error = %q, want to contain 'RateLimit.Create'", err.Error())
	}
}
