// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/haulbase/internal/config"
)

//go:embed model.conf
var embeddedModel string

// EnforcerConfig holds configuration for the casbin enforcer.
type EnforcerConfig struct {
	// DefaultRole is checked for principals that carry no role.
	DefaultRole  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// EnforcerConfigFrom maps the security config onto EnforcerConfig.
func EnforcerConfigFrom(cfg *config.CasbinConfig) *EnforcerConfig {
	return &EnforcerConfig{
		DefaultRole:  cfg.DefaultRole,
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     cfg.CacheTTL,
	}
}

// Enforcer wraps a synced casbin enforcer with a decision cache. Policies
// are kept in memory and rebuilt from the roles table on startup.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer builds an enforcer from the embedded model with no policies.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = &EnforcerConfig{DefaultRole: "viewer", CacheEnabled: true, CacheTTL: 5 * time.Minute}
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{config: cfg, enforcer: enforcer}
	if cfg.CacheEnabled {
		e.cache = newDecisionCache(cfg.CacheTTL)
	}
	return e, nil
}

// Enforce reports whether role may perform action on resource. An empty
// role falls back to the configured default role.
func (e *Enforcer) Enforce(role, resource, action string) (bool, error) {
	if role == "" {
		role = e.config.DefaultRole
	}
	if role == "" {
		return false, nil
	}

	if e.cache != nil {
		if allowed, ok := e.cache.get(role, resource, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, resource, action, allowed)
	}
	return allowed, nil
}

// SetRolePolicies replaces every policy held by role with perms.
func (e *Enforcer) SetRolePolicies(role string, perms []string) error {
	if _, err := e.enforcer.RemoveFilteredPolicy(0, role); err != nil {
		return fmt.Errorf("failed to clear policies for %s: %w", role, err)
	}

	rules := make([][]string, 0, len(perms))
	for _, p := range perms {
		resource, action, ok := SplitPermission(p)
		if !ok {
			continue
		}
		rules = append(rules, []string{role, resource, action})
	}
	if len(rules) > 0 {
		if _, err := e.enforcer.AddPolicies(rules); err != nil {
			return fmt.Errorf("failed to add policies for %s: %w", role, err)
		}
	}

	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// RemoveRole drops every policy held by role.
func (e *Enforcer) RemoveRole(role string) error {
	return e.SetRolePolicies(role, nil)
}

// RolePermissions returns the permissions the enforcer holds for role.
func (e *Enforcer) RolePermissions(role string) []string {
	//nolint:errcheck // only fails on a nil model
	rules, _ := e.enforcer.GetFilteredPolicy(0, role)
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 3 {
			out = append(out, Permission(rule[1], rule[2]))
		}
	}
	return out
}

// Close stops the cache janitor.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
