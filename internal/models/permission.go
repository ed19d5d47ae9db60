// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

// Permission actions.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// Role bundles a set of resource:action permissions.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BuiltIn     bool     `json:"built_in"`
	Permissions []string `json:"permissions"`
}

// PermissionAction is one action inside a permission group.
type PermissionAction struct {
	Action     string `json:"action"`
	Permission string `json:"permission"`
	Granted    *bool  `json:"granted,omitempty"`
}

// PermissionGroup collects the actions available on a single resource.
type PermissionGroup struct {
	Resource string             `json:"resource"`
	Label    string             `json:"label"`
	Actions  []PermissionAction `json:"actions"`
}

// RoleRequest is the body for creating a role.
type RoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=64"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,permission"`
}

// RolePermissionsRequest replaces a role's permissions.
type RolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// RoleUpdateRequest changes a role's description.
type RoleUpdateRequest struct {
	Description string `json:"description" validate:"max=500"`
}
