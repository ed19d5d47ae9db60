// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/haulbase/internal/models"
)

// Roles are shared by every tenant; the casbin enforcer holds one policy set.

const roleColumns = `name, COALESCE(description, ''), built_in, permissions`

func scanRole(row scanner) (*models.Role, error) {
	r := &models.Role{}
	var perms sql.NullString
	if err := row.Scan(&r.Name, &r.Description, &r.BuiltIn, &perms); err != nil {
		return nil, err
	}
	list, err := unmarshalStrings(perms)
	if err != nil {
		return nil, err
	}
	r.Permissions = list
	return r, nil
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func getRole(ctx context.Context, q execer, name string) (*models.Role, error) {
	r, err := scanRole(q.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("role %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return r, nil
}

// GetRole returns one role.
func (db *DB) GetRole(ctx context.Context, name string) (*models.Role, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getRole(ctx, db.conn, name)
}

// ListRoles returns every role, built-ins first.
func (db *DB) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY built_in DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

// CreateRole adds a custom role. An existing name returns ErrConflict.
func (db *DB) CreateRole(ctx context.Context, r *models.Role) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r.BuiltIn = false
	return db.insertRole(ctx, r)
}

func (db *DB) insertRole(ctx context.Context, r *models.Role) error {
	r.Permissions = normalizePermissions(r.Permissions)
	perms, err := marshalStrings(r.Permissions)
	if err != nil {
		return err
	}
	now := db.now()
	_, err = db.conn.ExecContext(ctx, `INSERT INTO roles (name, description, built_in, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, r.Name, nullString(r.Description), r.BuiltIn, perms, now, now)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("role %s already exists: %w", r.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}
	return nil
}

// SetRolePermissions replaces a role's permission list.
func (db *DB) SetRolePermissions(ctx context.Context, name string, perms []string) (*models.Role, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	perms = normalizePermissions(perms)
	raw, err := marshalStrings(perms)
	if err != nil {
		return nil, err
	}
	result, err := db.conn.ExecContext(ctx, `UPDATE roles SET permissions = ?, updated_at = ? WHERE name = ?`,
		raw, db.now(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to update role permissions: %w", err)
	}
	if err := requireOneRow(result, "role "+name); err != nil {
		return nil, err
	}
	return getRole(ctx, db.conn, name)
}

// UpdateRoleDescription changes a role's description.
func (db *DB) UpdateRoleDescription(ctx context.Context, name, description string) (*models.Role, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `UPDATE roles SET description = ?, updated_at = ? WHERE name = ?`,
		nullString(description), db.now(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if err := requireOneRow(result, "role "+name); err != nil {
		return nil, err
	}
	return getRole(ctx, db.conn, name)
}

// DeleteRole removes a custom role that no user holds.
func (db *DB) DeleteRole(ctx context.Context, name string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		r, err := getRole(ctx, tx, name)
		if err != nil {
			return err
		}
		if r.BuiltIn {
			return fmt.Errorf("role %s: %w", name, ErrBuiltInRole)
		}
		var holders int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, name).Scan(&holders); err != nil {
			return fmt.Errorf("failed to count role holders: %w", err)
		}
		if holders > 0 {
			return fmt.Errorf("role %s is assigned to %d users: %w", name, holders, ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE name = ?`, name); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return nil
	})
}

// EnsureRole inserts a role when no role of that name exists. Existing roles,
// including edited built-ins, are left untouched.
func (db *DB) EnsureRole(ctx context.Context, r *models.Role) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := getRole(ctx, db.conn, r.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if err := db.insertRole(ctx, r); err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
