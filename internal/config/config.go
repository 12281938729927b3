package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration for the sessiondesk server.
// Loaded from sessiondesk.yaml with environment variable overrides
// (SESSIONDESK_ prefix, e.g. SESSIONDESK_SERVER_HTTP_ADDR).
type Config struct {
	// Server holds HTTP listener configuration.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Store selects and configures the session store backend.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Auth configures token verification.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// RateLimit configures per-operation request limits.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// CORS configures the allowed browser origins.
	// Empty list allows any origin.
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`

	// DevMode enables permissive defaults for local development:
	// in-memory store, a well-known API key, and debug logging.
	// NEVER use in production.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// HTTPAddr is the listen address, e.g. "127.0.0.1:8080".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel controls the minimum log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=sqlite memory"`

	// Path is the SQLite database file. Required for the sqlite backend.
	Path string `yaml:"path" mapstructure:"path"`

	// DeletedTTL is how long deleted-session snapshots remain visible.
	DeletedTTL time.Duration `yaml:"deleted_ttl" mapstructure:"deleted_ttl"`

	// IdempotencyTTL is how long idempotency records replay prior creates.
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" mapstructure:"idempotency_ttl"`

	// SweepInterval is how often expired rows are purged (sqlite backend).
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// AuthConfig configures token verification.
type AuthConfig struct {
	// Mode is "static" (configured API keys) or "oidc" (external issuer).
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=static oidc"`

	// Keys are the accepted API keys in static mode.
	Keys []StaticKeyConfig `yaml:"keys" mapstructure:"keys" validate:"dive"`

	// OIDC configures the token issuer in oidc mode.
	OIDC OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// StaticKeyConfig is a single accepted API key.
type StaticKeyConfig struct {
	// Subject is the identity attached to requests bearing this key.
	Subject string `yaml:"subject" mapstructure:"subject" validate:"required"`

	// KeyHash is the hashed key: "sha256:<hex>" or "argon2id:<encoded>".
	KeyHash string `yaml:"key_hash" mapstructure:"key_hash" validate:"required,key_hash"`
}

// OIDCConfig configures OIDC token verification.
type OIDCConfig struct {
	// Issuer is the OIDC issuer URL, e.g. "https://auth.example.com/realms/desk".
	Issuer string `yaml:"issuer" mapstructure:"issuer" validate:"omitempty,url"`

	// Audience is the expected audience (client ID) of presented tokens.
	Audience string `yaml:"audience" mapstructure:"audience"`
}

// RateLimitConfig configures per-operation fixed-window limits.
type RateLimitConfig struct {
	// Enabled turns rate limiting on. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Window is the fixed window length shared by all operations.
	Window time.Duration `yaml:"window" mapstructure:"window"`

	// Per-operation maximum requests per window per subject:ip pair.
	Create       int `yaml:"create" mapstructure:"create" validate:"min=0"`
	Update       int `yaml:"update" mapstructure:"update" validate:"min=0"`
	UpdateStatus int `yaml:"update_status" mapstructure:"update_status" validate:"min=0"`
	Complete     int `yaml:"complete" mapstructure:"complete" validate:"min=0"`
	Fail         int `yaml:"fail" mapstructure:"fail" validate:"min=0"`
	Delete       int `yaml:"delete" mapstructure:"delete" validate:"min=0"`

	// RedisAddr, when set, backs the limiter with Redis so counts are
	// shared across instances. Empty uses the in-process limiter.
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
}

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	// AllowedOrigins is the exact-match origin allowlist.
	// Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Default values applied by SetDefaults.
const (
	DefaultHTTPAddr      = "127.0.0.1:8080"
	DefaultLogLevel      = "info"
	DefaultStoreBackend  = "sqlite"
	DefaultStorePath     = "sessiondesk.db"
	DefaultTTL           = 24 * time.Hour
	DefaultSweepInterval = time.Minute
	DefaultWindow        = time.Minute
)

// Default per-operation limits (requests per window per subject:ip pair).
const (
	DefaultCreateMax       = 20
	DefaultUpdateMax       = 60
	DefaultUpdateStatusMax = 60
	DefaultCompleteMax     = 30
	DefaultFailMax         = 30
	DefaultDeleteMax       = 20
)

// Dev mode well-known credentials. The key is "dev-key"; the hash below is
// its SHA-256. Only seeded when DevMode is true and no keys are configured.
const (
	DevSubject = "dev"
	DevKeyHash = "sha256:7e9f8fd111802be56c379d597842e29b2cebd35ff2133d431a49fa556a18704e"
)

// SetDefaults applies default values for optional fields.
// Uses viper.IsSet to distinguish unset fields from explicit zero values.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}

	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Store.DeletedTTL <= 0 {
		c.Store.DeletedTTL = DefaultTTL
	}
	if c.Store.IdempotencyTTL <= 0 {
		c.Store.IdempotencyTTL = DefaultTTL
	}
	if c.Store.SweepInterval <= 0 {
		c.Store.SweepInterval = DefaultSweepInterval
	}

	if c.Auth.Mode == "" {
		c.Auth.Mode = "static"
	}

	// Enabled defaults to true; an explicit false in the config file or
	// environment is honored.
	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultWindow
	}
	if c.RateLimit.Create == 0 {
		c.RateLimit.Create = DefaultCreateMax
	}
	if c.RateLimit.Update == 0 {
		c.RateLimit.Update = DefaultUpdateMax
	}
	if c.RateLimit.UpdateStatus == 0 {
		c.RateLimit.UpdateStatus = DefaultUpdateStatusMax
	}
	if c.RateLimit.Complete == 0 {
		c.RateLimit.Complete = DefaultCompleteMax
	}
	if c.RateLimit.Fail == 0 {
		c.RateLimit.Fail = DefaultFailMax
	}
	if c.RateLimit.Delete == 0 {
		c.RateLimit.Delete = DefaultDeleteMax
	}
}

// SetDevDefaults applies permissive defaults when DevMode is enabled:
// in-memory store, debug logging, and a well-known API key if none are
// configured. No-op when DevMode is false.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	if !viper.IsSet("store.backend") {
		c.Store.Backend = "memory"
	}
	if !viper.IsSet("server.log_level") {
		c.Server.LogLevel = "debug"
	}
	if c.Auth.Mode == "static" && len(c.Auth.Keys) == 0 {
		c.Auth.Keys = []StaticKeyConfig{{
			Subject: DevSubject,
			KeyHash: DevKeyHash,
		}}
	}
}
