// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/models"
)

func TestService_BootstrapSeedsBuiltIns(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	roles, err := store.ListRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 3 {
		t.Fatalf("seeded %d roles, want 3", len(roles))
	}

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{models.RoleAdmin, ResourceRoles, models.ActionDelete, true},
		{models.RoleDispatcher, ResourceLoads, models.ActionWrite, true},
		{models.RoleDispatcher, ResourceUsers, models.ActionRead, false},
		{models.RoleViewer, ResourceLoads, models.ActionRead, true},
		{models.RoleViewer, ResourceLoads, models.ActionWrite, false},
	}
	for _, tt := range tests {
		got, err := svc.Can(&auth.Principal{Role: tt.role}, tt.resource, tt.action)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Can(%s, %s:%s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}

	if ok, _ := svc.Can(nil, ResourceLoads, models.ActionRead); ok {
		t.Error("nil principal allowed")
	}
}

func TestService_BootstrapKeepsEditedBuiltIns(t *testing.T) {
	t.Parallel()

	store := newMemoryRoles()
	_, _ = store.EnsureRole(context.Background(), &models.Role{
		Name: models.RoleViewer, BuiltIn: true, Permissions: []string{"carriers:read"},
	})
	svc := NewService(store, newTestEnforcer(t))
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}

	viewer := &auth.Principal{Role: models.RoleViewer}
	if ok, _ := svc.Can(viewer, ResourceLoads, models.ActionRead); ok {
		t.Error("stored viewer permissions were overwritten by the defaults")
	}
	if ok, _ := svc.Can(viewer, ResourceCarriers, models.ActionRead); !ok {
		t.Error("stored viewer permission not loaded")
	}
}

func TestService_SetRolePermissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)
	viewer := &auth.Principal{Role: models.RoleViewer}

	role, err := svc.SetRolePermissions(ctx, models.RoleViewer, []string{"loads:read", "loads:write"})
	if err != nil {
		t.Fatalf("SetRolePermissions: %v", err)
	}
	if len(role.Permissions) != 2 {
		t.Errorf("permissions = %v", role.Permissions)
	}
	if ok, _ := svc.Can(viewer, ResourceLoads, models.ActionWrite); !ok {
		t.Error("granted permission not enforced")
	}
	if ok, _ := svc.Can(viewer, ResourceCarriers, models.ActionRead); ok {
		t.Error("revoked permission still enforced")
	}

	if _, err := svc.SetRolePermissions(ctx, models.RoleAdmin, nil); !errors.Is(err, ErrImmutableRole) {
		t.Errorf("editing admin: err = %v, want ErrImmutableRole", err)
	}
	if _, err := svc.SetRolePermissions(ctx, models.RoleViewer, []string{"fleet:read"}); !errors.Is(err, ErrUnknownPermission) {
		t.Errorf("unknown permission: err = %v", err)
	}
	if _, err := svc.SetRolePermissions(ctx, "ghost", []string{"loads:read"}); !errors.Is(err, errRoleNotFound) {
		t.Errorf("missing role: err = %v", err)
	}
}

func TestService_RolePermissions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	groups, err := svc.RolePermissions(context.Background(), models.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range groups {
		for _, a := range g.Actions {
			if a.Granted == nil {
				t.Fatalf("%s has no granted flag", a.Permission)
			}
			if *a.Granted && a.Action != models.ActionRead {
				t.Errorf("viewer granted %s", a.Permission)
			}
		}
	}
}

func TestService_CustomRoleLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	role, err := svc.CreateRole(ctx, &models.RoleRequest{
		Name: "billing", Description: "Accounts", Permissions: []string{"analytics:read"},
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if role.BuiltIn {
		t.Error("custom role flagged built-in")
	}
	billing := &auth.Principal{Role: "billing"}
	if ok, _ := svc.Can(billing, ResourceAnalytics, models.ActionRead); !ok {
		t.Error("custom role permission not enforced")
	}

	if _, err := svc.CreateRole(ctx, &models.RoleRequest{Name: "billing"}); !errors.Is(err, errRoleConflict) {
		t.Errorf("duplicate role: err = %v", err)
	}

	updated, err := svc.UpdateRole(ctx, "billing", "Finance team")
	if err != nil || updated.Description != "Finance team" {
		t.Fatalf("UpdateRole = %+v, %v", updated, err)
	}

	if err := svc.DeleteRole(ctx, "billing"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if ok, _ := svc.Can(billing, ResourceAnalytics, models.ActionRead); ok {
		t.Error("deleted role still allowed")
	}
	if err := svc.DeleteRole(ctx, models.RoleViewer); !errors.Is(err, errRoleBuiltIn) {
		t.Errorf("deleting built-in: err = %v", err)
	}
}
