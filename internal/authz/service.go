// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
	"github.com/tomtom215/haulbase/internal/models"
)

// ErrImmutableRole is returned when editing the admin role's permissions.
var ErrImmutableRole = errors.New("the admin role always holds every permission")

// RoleStore persists roles. Implemented by *database.DB.
type RoleStore interface {
	EnsureRole(ctx context.Context, r *models.Role) (bool, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	GetRole(ctx context.Context, name string) (*models.Role, error)
	CreateRole(ctx context.Context, r *models.Role) error
	SetRolePermissions(ctx context.Context, name string, perms []string) (*models.Role, error)
	UpdateRoleDescription(ctx context.Context, name, description string) (*models.Role, error)
	DeleteRole(ctx context.Context, name string) error
}

// Service keeps the roles table and the enforcer in step.
type Service struct {
	store    RoleStore
	enforcer *Enforcer
}

// NewService returns a role service. Call Bootstrap before serving.
func NewService(store RoleStore, enforcer *Enforcer) *Service {
	return &Service{store: store, enforcer: enforcer}
}

// Bootstrap seeds missing built-in roles and loads every role's policies.
func (s *Service) Bootstrap(ctx context.Context) error {
	for _, role := range BuiltInRoles() {
		created, err := s.store.EnsureRole(ctx, &role)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
		if created {
			logging.Info().Str("role", role.Name).Int("permissions", len(role.Permissions)).Msg("Seeded built-in role")
		}
	}

	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}
	for i := range roles {
		perms := roles[i].Permissions
		if roles[i].Name == models.RoleAdmin {
			perms = AllPermissions()
		}
		if err := s.enforcer.SetRolePolicies(roles[i].Name, perms); err != nil {
			return err
		}
	}
	logging.Info().Int("roles", len(roles)).Msg("Authorization policies loaded")
	return nil
}

// Can reports whether p may perform action on resource.
func (s *Service) Can(p *auth.Principal, resource, action string) (bool, error) {
	if p == nil {
		return false, nil
	}
	allowed, err := s.enforcer.Enforce(p.Role, resource, action)
	if err != nil {
		return false, err
	}
	metrics.RecordAuthz(resource, action, allowed)
	return allowed, nil
}

// Catalogue returns every permission grouped by resource.
func (s *Service) Catalogue() []models.PermissionGroup {
	return Groups(nil)
}

// ListRoles returns every role.
func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.store.ListRoles(ctx)
}

// GetRole returns a single role.
func (s *Service) GetRole(ctx context.Context, name string) (*models.Role, error) {
	return s.store.GetRole(ctx, name)
}

// RolePermissions returns the catalogue with granted flags for role.
func (s *Service) RolePermissions(ctx context.Context, name string) ([]models.PermissionGroup, error) {
	role, err := s.store.GetRole(ctx, name)
	if err != nil {
		return nil, err
	}
	granted := role.Permissions
	if granted == nil {
		granted = []string{}
	}
	return Groups(granted), nil
}

// CreateRole adds a custom role.
func (s *Service) CreateRole(ctx context.Context, req *models.RoleRequest) (*models.Role, error) {
	if err := ValidatePermissions(req.Permissions); err != nil {
		return nil, err
	}
	role := &models.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	if err := s.enforcer.SetRolePolicies(role.Name, role.Permissions); err != nil {
		return nil, err
	}
	return s.store.GetRole(ctx, role.Name)
}

// SetRolePermissions replaces the permissions of role, in storage and in
// the enforcer.
func (s *Service) SetRolePermissions(ctx context.Context, name string, perms []string) (*models.Role, error) {
	if name == models.RoleAdmin {
		return nil, ErrImmutableRole
	}
	if err := ValidatePermissions(perms); err != nil {
		return nil, err
	}
	role, err := s.store.SetRolePermissions(ctx, name, perms)
	if err != nil {
		return nil, err
	}
	if err := s.enforcer.SetRolePolicies(name, role.Permissions); err != nil {
		return nil, err
	}
	logging.Info().Str("role", name).Int("permissions", len(role.Permissions)).Msg("Role permissions updated")
	return role, nil
}

// UpdateRole changes a role's description.
func (s *Service) UpdateRole(ctx context.Context, name, description string) (*models.Role, error) {
	return s.store.UpdateRoleDescription(ctx, name, description)
}

// DeleteRole removes a custom role and its policies.
func (s *Service) DeleteRole(ctx context.Context, name string) error {
	if err := s.store.DeleteRole(ctx, name); err != nil {
		return err
	}
	return s.enforcer.RemoveRole(name)
}
