// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"time"
)

// Config holds all application configuration.
//
// Values are layered by LoadWithKoanf: struct defaults, then an optional YAML
// file, then environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	FMCSA     FMCSAConfig     `koanf:"fmcsa"`
	Events    EventsConfig    `koanf:"events"`
	Documents DocumentsConfig `koanf:"documents"`
	Equipment EquipmentConfig `koanf:"equipment"`
	Audit     AuditConfig     `koanf:"audit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB configuration.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// SeedMockData loads a demo tenant with carriers, loads and bids on startup
	// when the database is empty.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// APIConfig holds pagination defaults shared by every list endpoint.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication, authorization and HTTP hardening settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // none, basic, jwt, oidc
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	DefaultTenant     string        `koanf:"default_tenant"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	Casbin            CasbinConfig  `koanf:"casbin"`
	OIDC              OIDCConfig    `koanf:"oidc"`
}

// OIDCConfig lets an external identity provider issue the bearer tokens.
// Tokens are verified against the issuer's discovered JWKS; Haulbase never
// runs the browser login flow itself.
type OIDCConfig struct {
	IssuerURL    string   `koanf:"issuer_url"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Scopes       []string `koanf:"scopes"`

	// RoleClaim and TenantClaim name the custom claims carrying the Haulbase
	// role and tenant. A token without a tenant claim is rejected.
	RoleClaim      string   `koanf:"role_claim"`
	TenantClaim    string   `koanf:"tenant_claim"`
	UsernameClaims []string `koanf:"username_claims"`
}

// CasbinConfig holds RBAC enforcer settings.
type CasbinConfig struct {
	// DefaultRole is assigned to principals that carry no role.
	DefaultRole  string        `koanf:"default_role"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// FMCSAConfig configures the FMCSA QCMobile carrier lookup client.
type FMCSAConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	WebKey            string        `koanf:"web_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// EventsConfig configures the domain event bus.
type EventsConfig struct {
	// Transport is "memory" (in-process watermill gochannel) or "nats".
	Transport string `koanf:"transport"`

	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	StreamName     string `koanf:"stream_name"`
	DurableName    string `koanf:"durable_name"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`

	// Publishes that fail after a commit are parked in a Badger outbox and
	// retried. An empty OutboxPath keeps the outbox in memory.
	OutboxPath        string        `koanf:"outbox_path"`
	OutboxMaxAttempts int           `koanf:"outbox_max_attempts"`
	OutboxEntryTTL    time.Duration `koanf:"outbox_entry_ttl"`
}

// DocumentsConfig configures document blob storage.
type DocumentsConfig struct {
	BlobPath       string `koanf:"blob_path"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
}

// EquipmentConfig lists the candidate tables equipment lookups are served from,
// in the order they are tried.
type EquipmentConfig struct {
	TableNames []string `koanf:"table_names"`
}

// AuditConfig configures audit log retention.
type AuditConfig struct {
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// Load reads configuration from defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
