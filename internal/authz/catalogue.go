// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/haulbase/internal/models"
)

// Resources guarded by the enforcer.
const (
	ResourceCarriers     = "carriers"
	ResourceLoads        = "loads"
	ResourceQuotes       = "quotes"
	ResourceBids         = "bids"
	ResourceEquipment    = "equipment"
	ResourceWorkflows    = "workflows"
	ResourceDocuments    = "documents"
	ResourceTracking     = "tracking"
	ResourceAnalytics    = "analytics"
	ResourceIntegrations = "integrations"
	ResourceUsers        = "users"
	ResourceRoles        = "roles"
	ResourceAudit        = "audit"
)

var allActions = []string{models.ActionRead, models.ActionWrite, models.ActionDelete}

type resourceDef struct {
	name    string
	label   string
	actions []string
}

// catalogue is ordered the way the permission editor shows it.
var catalogue = []resourceDef{
	{ResourceCarriers, "Carriers", allActions},
	{ResourceLoads, "Loads", allActions},
	{ResourceQuotes, "Quotes", allActions},
	{ResourceBids, "Load board bids", allActions},
	{ResourceEquipment, "Equipment", allActions},
	{ResourceWorkflows, "Workflows", allActions},
	{ResourceDocuments, "Documents", allActions},
	{ResourceTracking, "Tracking", allActions},
	{ResourceAnalytics, "Analytics", allActions},
	{ResourceIntegrations, "Integrations", allActions},
	{ResourceUsers, "Users", allActions},
	{ResourceRoles, "Roles & permissions", allActions},
	{ResourceAudit, "Audit log", []string{models.ActionRead}},
}

// ErrUnknownPermission is returned for a permission outside the catalogue.
var ErrUnknownPermission = errors.New("unknown permission")

// Permission joins a resource and action.
func Permission(resource, action string) string {
	return resource + ":" + action
}

// SplitPermission is the inverse of Permission.
func SplitPermission(p string) (resource, action string, ok bool) {
	return strings.Cut(p, ":")
}

// AllPermissions lists every permission in catalogue order.
func AllPermissions() []string {
	var out []string
	for _, r := range catalogue {
		for _, a := range r.actions {
			out = append(out, Permission(r.name, a))
		}
	}
	return out
}

func knownPermissions() map[string]struct{} {
	known := make(map[string]struct{})
	for _, p := range AllPermissions() {
		known[p] = struct{}{}
	}
	return known
}

// ValidatePermissions rejects anything not in the catalogue.
func ValidatePermissions(perms []string) error {
	known := knownPermissions()
	var unknown []string
	for _, p := range perms {
		if _, ok := known[p]; !ok {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(unknown, ", "))
	}
	return nil
}

// Groups returns the catalogue grouped by resource. When granted is non-nil
// each action carries a granted flag.
func Groups(granted []string) []models.PermissionGroup {
	var have map[string]bool
	if granted != nil {
		have = make(map[string]bool, len(granted))
		for _, p := range granted {
			have[p] = true
		}
	}

	groups := make([]models.PermissionGroup, 0, len(catalogue))
	for _, r := range catalogue {
		g := models.PermissionGroup{Resource: r.name, Label: r.label}
		for _, a := range r.actions {
			perm := Permission(r.name, a)
			pa := models.PermissionAction{Action: a, Permission: perm}
			if have != nil {
				v := have[perm]
				pa.Granted = &v
			}
			g.Actions = append(g.Actions, pa)
		}
		groups = append(groups, g)
	}
	return groups
}

// BuiltInRoles are seeded on startup when missing.
func BuiltInRoles() []models.Role {
	return []models.Role{
		{
			Name:        models.RoleAdmin,
			Description: "Full access to every resource",
			BuiltIn:     true,
			Permissions: AllPermissions(),
		},
		{
			Name:        models.RoleDispatcher,
			Description: "Runs day-to-day brokerage operations",
			BuiltIn:     true,
			Permissions: dispatcherPermissions(),
		},
		{
			Name:        models.RoleViewer,
			Description: "Read-only access to operational data",
			BuiltIn:     true,
			Permissions: viewerPermissions(),
		},
	}
}

func dispatcherPermissions() []string {
	var perms []string
	for _, r := range []string{ResourceCarriers, ResourceLoads, ResourceQuotes, ResourceBids,
		ResourceWorkflows, ResourceDocuments, ResourceTracking} {
		perms = append(perms, Permission(r, models.ActionRead), Permission(r, models.ActionWrite))
	}
	for _, r := range []string{ResourceEquipment, ResourceAnalytics, ResourceIntegrations} {
		perms = append(perms, Permission(r, models.ActionRead))
	}
	return append(perms,
		Permission(ResourceDocuments, models.ActionDelete),
		Permission(ResourceLoads, models.ActionDelete),
	)
}

func viewerPermissions() []string {
	var perms []string
	for _, r := range catalogue {
		switch r.name {
		case ResourceUsers, ResourceRoles, ResourceIntegrations, ResourceAudit:
			continue
		}
		perms = append(perms, Permission(r.name, models.ActionRead))
	}
	return perms
}
