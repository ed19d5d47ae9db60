// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/models"
)

var (
	errRoleNotFound = errors.New("not found")
	errRoleConflict = errors.New("conflict")
	errRoleBuiltIn  = errors.New("built-in")
)

// memoryRoles is an in-memory RoleStore.
type memoryRoles struct {
	mu      sync.Mutex
	roles   map[string]models.Role
	holders map[string]int
}

func newMemoryRoles() *memoryRoles {
	return &memoryRoles{roles: make(map[string]models.Role), holders: make(map[string]int)}
}

func (s *memoryRoles) EnsureRole(_ context.Context, r *models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.Name]; ok {
		return false, nil
	}
	s.roles[r.Name] = cloneRole(*r)
	return true, nil
}

func (s *memoryRoles) ListRoles(context.Context) ([]models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, cloneRole(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryRoles) GetRole(_ context.Context, name string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", name, errRoleNotFound)
	}
	c := cloneRole(r)
	return &c, nil
}

func (s *memoryRoles) CreateRole(_ context.Context, r *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.Name]; ok {
		return errRoleConflict
	}
	s.roles[r.Name] = cloneRole(*r)
	return nil
}

func (s *memoryRoles) SetRolePermissions(_ context.Context, name string, perms []string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, errRoleNotFound
	}
	r.Permissions = slices.Clone(perms)
	s.roles[name] = r
	c := cloneRole(r)
	return &c, nil
}

func (s *memoryRoles) UpdateRoleDescription(_ context.Context, name, description string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, errRoleNotFound
	}
	r.Description = description
	s.roles[name] = r
	c := cloneRole(r)
	return &c, nil
}

func (s *memoryRoles) DeleteRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return errRoleNotFound
	}
	if r.BuiltIn {
		return errRoleBuiltIn
	}
	if s.holders[name] > 0 {
		return errRoleConflict
	}
	delete(s.roles, name)
	return nil
}

func cloneRole(r models.Role) models.Role {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(&EnforcerConfig{DefaultRole: models.RoleViewer, CacheEnabled: true, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func newTestService(t *testing.T) (*Service, *memoryRoles) {
	t.Helper()
	store := newMemoryRoles()
	svc := NewService(store, newTestEnforcer(t))
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return svc, store
}
