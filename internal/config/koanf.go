// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/haulbase/config.yaml",
	"/etc/haulbase/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8420,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/haulbase.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			SeedMockData: false,
		},
		API: APIConfig{
			DefaultPageSize: 25,
			MaxPageSize:     200,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  12 * time.Hour,
			DefaultTenant:   "default",
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			TrustedProxies:  []string{},
			Casbin: CasbinConfig{
				DefaultRole:  "viewer",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
			OIDC: OIDCConfig{
				Scopes:         []string{"openid", "profile", "email"},
				RoleClaim:      "haulbase_role",
				TenantClaim:    "haulbase_tenant",
				UsernameClaims: []string{"preferred_username", "email"},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		FMCSA: FMCSAConfig{
			Enabled:           false,
			BaseURL:           "https://mobile.fmcsa.dot.gov/qc/services",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
			CacheTTL:          6 * time.Hour,
		},
		Events: EventsConfig{
			Transport:            "memory",
			NATSURL:              "nats://127.0.0.1:4222",
			EmbeddedServer:       false,
			StoreDir:             "/data/nats",
			StreamName:           "HAULBASE",
			DurableName:          "haulbase",
			RetryMaxRetries:      3,
			RetryInitialInterval: 100 * time.Millisecond,
			CloseTimeout:         10 * time.Second,
			OutboxPath:           "/data/outbox",
			OutboxMaxAttempts:    20,
			OutboxEntryTTL:       24 * time.Hour,
		},
		Documents: DocumentsConfig{
			BlobPath:       "/data/documents",
			MaxUploadBytes: 25 << 20,
		},
		Equipment: EquipmentConfig{
			TableNames: []string{"equipment_types", "equipment"},
		},
		Audit: AuditConfig{
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults,
// then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"security.oidc.scopes",
	"security.oidc.username_claims",
	"equipment.table_names",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_mock_data":    "database.seed_mock_data",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"default_tenant":      "security.default_tenant",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",

	"oidc_issuer_url":      "security.oidc.issuer_url",
	"oidc_client_id":       "security.oidc.client_id",
	"oidc_client_secret":   "security.oidc.client_secret",
	"oidc_scopes":          "security.oidc.scopes",
	"oidc_role_claim":      "security.oidc.role_claim",
	"oidc_tenant_claim":    "security.oidc.tenant_claim",
	"oidc_username_claims": "security.oidc.username_claims",

	"casbin_default_role":  "security.casbin.default_role",
	"casbin_cache_enabled": "security.casbin.cache_enabled",
	"casbin_cache_ttl":     "security.casbin.cache_ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"fmcsa_enabled":   "fmcsa.enabled",
	"fmcsa_base_url":  "fmcsa.base_url",
	"fmcsa_web_key":   "fmcsa.web_key",
	"fmcsa_timeout":   "fmcsa.timeout",
	"fmcsa_rps":       "fmcsa.requests_per_second",
	"fmcsa_burst":     "fmcsa.burst",
	"fmcsa_cache_ttl": "fmcsa.cache_ttl",

	"events_transport":     "events.transport",
	"nats_url":             "events.nats_url",
	"nats_embedded":        "events.embedded_server",
	"nats_store_dir":       "events.store_dir",
	"nats_stream_name":     "events.stream_name",
	"nats_durable_name":    "events.durable_name",
	"events_retry_max":     "events.retry_max_retries",
	"events_retry_delay":   "events.retry_initial_interval",
	"events_close_timeout": "events.close_timeout",
	"outbox_path":          "events.outbox_path",
	"outbox_max_attempts":  "events.outbox_max_attempts",
	"outbox_entry_ttl":     "events.outbox_entry_ttl",

	"documents_blob_path":  "documents.blob_path",
	"documents_max_upload": "documents.max_upload_bytes",

	"equipment_tables": "equipment.table_names",

	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",
}

// envTransformFunc maps environment variable names to koanf paths.
//
//	DUCKDB_PATH      -> database.path
//	FMCSA_WEB_KEY    -> fmcsa.web_key
//	EQUIPMENT_TABLES -> equipment.table_names
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
