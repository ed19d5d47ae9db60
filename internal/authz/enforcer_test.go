// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"slices"
	"testing"
	"time"
)

func TestEnforcer_SetRolePolicies(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	if err := e.SetRolePolicies("ops", []string{"loads:read", "loads:write"}); err != nil {
		t.Fatalf("SetRolePolicies: %v", err)
	}

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{"ops", "loads", "read", true},
		{"ops", "loads", "write", true},
		{"ops", "loads", "delete", false},
		{"ops", "carriers", "read", false},
		{"other", "loads", "read", false},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.role, tt.resource, tt.action)
		if err != nil {
			t.Fatalf("Enforce: %v", err)
		}
		if got != tt.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}

	// Replacing policies clears cached allow decisions.
	if err := e.SetRolePolicies("ops", []string{"carriers:read"}); err != nil {
		t.Fatalf("SetRolePolicies: %v", err)
	}
	if ok, _ := e.Enforce("ops", "loads", "read"); ok {
		t.Error("stale cached decision survived a policy change")
	}
	if ok, _ := e.Enforce("ops", "carriers", "read"); !ok {
		t.Error("new policy not applied")
	}
	if got := e.RolePermissions("ops"); !slices.Equal(got, []string{"carriers:read"}) {
		t.Errorf("RolePermissions = %v", got)
	}
}

func TestEnforcer_DefaultRole(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	if err := e.SetRolePolicies("viewer", []string{"loads:read"}); err != nil {
		t.Fatalf("SetRolePolicies: %v", err)
	}
	if ok, _ := e.Enforce("", "loads", "read"); !ok {
		t.Error("empty role should fall back to the default role")
	}

	bare, err := NewEnforcer(&EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	defer bare.Close()
	if ok, _ := bare.Enforce("", "loads", "read"); ok {
		t.Error("no default role must deny")
	}
}

func TestEnforcer_RemoveRole(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	_ = e.SetRolePolicies("temp", []string{"bids:read"})
	if err := e.RemoveRole("temp"); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if ok, _ := e.Enforce("temp", "bids", "read"); ok {
		t.Error("removed role still allowed")
	}
}

func TestDecisionCache(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newDecisionCache(time.Minute)
	defer c.stop()
	c.now = func() time.Time { return now }

	c.set("r", "loads", "read", true)
	if allowed, ok := c.get("r", "loads", "read"); !ok || !allowed {
		t.Fatalf("get = %v, %v", allowed, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("r", "loads", "read"); ok {
		t.Error("expired entry returned")
	}
	if n := c.evictExpired(); n != 1 {
		t.Errorf("evictExpired = %d, want 1", n)
	}
	if c.len() != 0 {
		t.Errorf("len = %d after eviction", c.len())
	}

	c.stop()
	c.stop()
}
