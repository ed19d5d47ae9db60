// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateAPI,
		c.validateSecurity,
		c.validateLogging,
		c.validateFMCSA,
		c.validateEvents,
		c.validateDocuments,
		c.validateEquipment,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Security.DefaultTenant == "" {
		return fmt.Errorf("DEFAULT_TENANT must not be empty")
	}

	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
		return c.validateAdminCredentials()
	case "basic":
		return c.validateAdminCredentials()
	case "oidc":
		return c.validateOIDC()
	}
	return nil
}

var validAuthModes = map[string]bool{
	"none":  true,
	"jwt":   true,
	"basic": true,
	"oidc":  true,
}

func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt, basic, oidc")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}
	return nil
}

// validateCORS rejects wildcard origins in production when authentication is on.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production with authentication enabled; " +
			"set explicit origins, e.g. CORS_ORIGINS=https://dispatch.example.com")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a permissive CORS setup that is tolerated outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// IsProduction returns true when ENVIRONMENT is production or prod.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true when ENVIRONMENT is unset, development or dev.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateOIDC() error {
	o := &c.Security.OIDC
	if o.IssuerURL == "" {
		return fmt.Errorf("OIDC_ISSUER_URL is required when AUTH_MODE is oidc")
	}
	if err := validateHTTPURL(o.IssuerURL, "OIDC_ISSUER_URL"); err != nil {
		return err
	}
	if o.ClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required when AUTH_MODE is oidc")
	}
	if o.TenantClaim == "" {
		return fmt.Errorf("OIDC_TENANT_CLAIM must not be empty")
	}
	return nil
}

func (c *Config) validateAdminCredentials() error {
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is %s", c.Security.AuthMode)
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when AUTH_MODE is %s", c.Security.AuthMode)
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value")
	}
	if err := AdminPasswordPolicy().Check(c.Security.AdminPassword, c.Security.AdminUsername); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateFMCSA() error {
	if !c.FMCSA.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.FMCSA.BaseURL, "FMCSA_BASE_URL"); err != nil {
		return err
	}
	if c.FMCSA.WebKey == "" {
		return fmt.Errorf("FMCSA_WEB_KEY is required when FMCSA_ENABLED=true")
	}
	if c.FMCSA.RequestsPerSecond <= 0 {
		return fmt.Errorf("FMCSA_RPS must be greater than 0")
	}
	if c.FMCSA.Burst < 1 {
		return fmt.Errorf("FMCSA_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.OutboxMaxAttempts < 1 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be at least 1")
	}
	if c.Events.OutboxEntryTTL < time.Minute {
		return fmt.Errorf("OUTBOX_ENTRY_TTL must be at least 1m")
	}
	switch c.Events.Transport {
	case "memory":
		return nil
	case "nats":
		if c.Events.EmbeddedServer {
			if c.Events.StoreDir == "" {
				return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
			}
			return nil
		}
		return validateNATSURL(c.Events.NATSURL)
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats")
	}
}

func (c *Config) validateDocuments() error {
	if c.Documents.BlobPath == "" {
		return fmt.Errorf("DOCUMENTS_BLOB_PATH is required")
	}
	if c.Documents.MaxUploadBytes < 1024 {
		return fmt.Errorf("DOCUMENTS_MAX_UPLOAD must be at least 1024 bytes")
	}
	return nil
}

// identifierPattern restricts equipment table names to plain SQL identifiers,
// since they are interpolated into queries.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func (c *Config) validateEquipment() error {
	if len(c.Equipment.TableNames) == 0 {
		return fmt.Errorf("EQUIPMENT_TABLES must list at least one table")
	}
	for _, name := range c.Equipment.TableNames {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("EQUIPMENT_TABLES entry %q is not a valid table identifier", name)
		}
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
