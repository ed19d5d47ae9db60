// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testJWTSecret = "this_is_a_very_long_secret_key_with_more_than_32_characters"

// isolateConfigFile points CONFIG_PATH at an empty temp dir so a developer's
// local config.yaml never leaks into the test.
func isolateConfigFile(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.Security.AuthMode != "jwt" {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if cfg.Events.Transport != "memory" {
		t.Errorf("Events.Transport = %q, want memory", cfg.Events.Transport)
	}
	if got := strings.Join(cfg.Equipment.TableNames, ","); got != "equipment_types,equipment" {
		t.Errorf("Equipment.TableNames = %q", got)
	}
	if cfg.FMCSA.CacheTTL != 6*time.Hour {
		t.Errorf("FMCSA.CacheTTL = %v, want 6h", cfg.FMCSA.CacheTTL)
	}
	if cfg.API.MaxPageSize < cfg.API.DefaultPageSize {
		t.Error("default max page size smaller than default page size")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		errMsg  string
	}{
		{
			name: "valid jwt configuration",
			envVars: map[string]string{
				"AUTH_MODE":      "jwt",
				"JWT_SECRET":     testJWTSecret,
				"ADMIN_USERNAME": "admin",
				"ADMIN_PASSWORD": "Dispatch#2026x",
			},
		},
		{
			name:    "auth none in development",
			envVars: map[string]string{"AUTH_MODE": "none"},
		},
		{
			name:    "jwt requires secret",
			envVars: map[string]string{"AUTH_MODE": "jwt"},
			errMsg:  "JWT_SECRET is required when AUTH_MODE is jwt",
		},
		{
			name: "jwt secret too short",
			envVars: map[string]string{
				"AUTH_MODE":      "jwt",
				"JWT_SECRET":     "short",
				"ADMIN_USERNAME": "admin",
				"ADMIN_PASSWORD": "Dispatch#2026x",
			},
			errMsg: "JWT_SECRET must be at least 32 characters",
		},
		{
			name: "basic requires admin password",
			envVars: map[string]string{
				"AUTH_MODE":      "basic",
				"ADMIN_USERNAME": "admin",
			},
			errMsg: "ADMIN_PASSWORD is required when AUTH_MODE is basic",
		},
		{
			name: "weak admin password",
			envVars: map[string]string{
				"AUTH_MODE":      "basic",
				"ADMIN_USERNAME": "admin",
				"ADMIN_PASSWORD": "Sh0rt!",
			},
			errMsg: "ADMIN_PASSWORD: password must be at least 12 characters (got 6)",
		},
		{
			name:    "invalid auth mode",
			envVars: map[string]string{"AUTH_MODE": "saml"},
			errMsg:  "AUTH_MODE must be one of: none, jwt, basic, oidc",
		},
		{
			name: "oidc configuration",
			envVars: map[string]string{
				"AUTH_MODE":       "oidc",
				"OIDC_ISSUER_URL": "https://login.example.com/realms/haulbase",
				"OIDC_CLIENT_ID":  "haulbase-api",
			},
		},
		{
			name:    "oidc requires issuer",
			envVars: map[string]string{"AUTH_MODE": "oidc", "OIDC_CLIENT_ID": "haulbase-api"},
			errMsg:  "OIDC_ISSUER_URL is required when AUTH_MODE is oidc",
		},
		{
			name: "oidc issuer must be http",
			envVars: map[string]string{
				"AUTH_MODE":       "oidc",
				"OIDC_ISSUER_URL": "ftp://login.example.com",
				"OIDC_CLIENT_ID":  "haulbase-api",
			},
			errMsg: "OIDC_ISSUER_URL scheme must be http or https",
		},
		{
			name:    "auth none refused in production",
			envVars: map[string]string{"AUTH_MODE": "none", "ENVIRONMENT": "production"},
			errMsg:  "AUTH_MODE=none is not allowed",
		},
		{
			name:    "invalid port",
			envVars: map[string]string{"AUTH_MODE": "none", "HTTP_PORT": "99999"},
			errMsg:  "HTTP_PORT must be between 1 and 65535",
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{"AUTH_MODE": "none", "LOG_LEVEL": "verbose"},
			errMsg:  "LOG_LEVEL must be one of",
		},
		{
			name:    "unknown events transport",
			envVars: map[string]string{"AUTH_MODE": "none", "EVENTS_TRANSPORT": "kafka"},
			errMsg:  "EVENTS_TRANSPORT must be one of: memory, nats",
		},
		{
			name: "nats transport with bad url",
			envVars: map[string]string{
				"AUTH_MODE":        "none",
				"EVENTS_TRANSPORT": "nats",
				"NATS_URL":         "http://localhost:4222",
			},
			errMsg: "NATS_URL scheme must be nats",
		},
		{
			name:    "outbox ttl too short",
			envVars: map[string]string{"AUTH_MODE": "none", "OUTBOX_ENTRY_TTL": "30s"},
			errMsg:  "OUTBOX_ENTRY_TTL must be at least 1m",
		},
		{
			name:    "fmcsa enabled without key",
			envVars: map[string]string{"AUTH_MODE": "none", "FMCSA_ENABLED": "true"},
			errMsg:  "FMCSA_WEB_KEY is required",
		},
		{
			name:    "equipment table injection rejected",
			envVars: map[string]string{"AUTH_MODE": "none", "EQUIPMENT_TABLES": "equipment_types,equipment; DROP TABLE loads"},
			errMsg:  "is not a valid table identifier",
		},
		{
			name:    "page size bounds",
			envVars: map[string]string{"AUTH_MODE": "none", "API_DEFAULT_PAGE_SIZE": "50", "API_MAX_PAGE_SIZE": "10"},
			errMsg:  "API_MAX_PAGE_SIZE (10) must be >= API_DEFAULT_PAGE_SIZE (50)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigFile(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("Load() unexpected error: %v", err)
				}
				if cfg == nil {
					t.Fatal("Load() returned nil config")
				}
				return
			}
			if err == nil {
				t.Fatalf("Load() expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Load() error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://dispatch.example.com, https://ops.example.com")
	t.Setenv("EQUIPMENT_TABLES", "legacy_equipment,equipment_types")
	t.Setenv("FMCSA_CACHE_TTL", "30m")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://ops.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Equipment.TableNames[0] != "legacy_equipment" {
		t.Errorf("TableNames = %v", cfg.Equipment.TableNames)
	}
	if cfg.FMCSA.CacheTTL != 30*time.Minute {
		t.Errorf("FMCSA.CacheTTL = %v, want 30m", cfg.FMCSA.CacheTTL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	isolateConfigFile(t)

	path := filepath.Join(t.TempDir(), "haulbase.yaml")
	content := `
server:
  port: 9200
security:
  auth_mode: none
  default_tenant: acme
events:
  transport: nats
  nats_url: nats://nats.internal:4222
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("env should override file: port = %d", cfg.Server.Port)
	}
	if cfg.Security.DefaultTenant != "acme" {
		t.Errorf("DefaultTenant = %q, want acme", cfg.Security.DefaultTenant)
	}
	if cfg.Events.NATSURL != "nats://nats.internal:4222" {
		t.Errorf("NATSURL = %q", cfg.Events.NATSURL)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"DUCKDB_PATH":      "database.path",
		"FMCSA_WEB_KEY":    "fmcsa.web_key",
		"nats_url":         "events.nats_url",
		"EQUIPMENT_TABLES": "equipment.table_names",
		"HOME":             "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard CORS with jwt auth should warn")
	}
	cfg.Security.CORSOrigins = []string{"https://dispatch.example.com"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origins should not warn")
	}
}
