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
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// Integration settings are stored as an opaque, already-encrypted string.
// Encryption belongs to the caller so the store never sees plaintext secrets.

// IntegrationRecord is an integration row with its sealed settings.
type IntegrationRecord struct {
	models.Integration
	SettingsEncrypted string
}

const integrationColumns = `id, tenant_id, kind, name, enabled, settings_encrypted, last_checked_at, last_status, created_at, updated_at`

func scanIntegration(row scanner) (*IntegrationRecord, error) {
	r := &IntegrationRecord{}
	var settings, lastStatus sql.NullString
	var lastChecked sql.NullTime
	if err := row.Scan(&r.ID, &r.TenantID, &r.Kind, &r.Name, &r.Enabled, &settings, &lastChecked,
		&lastStatus, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.SettingsEncrypted = settings.String
	r.LastCheckedAt = timePtr(lastChecked)
	r.LastStatus = lastStatus.String
	return r, nil
}

// GetIntegration returns the tenant's integration of the given kind.
func (db *DB) GetIntegration(ctx context.Context, tenantID, kind string) (*IntegrationRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getIntegration(ctx, db.conn, tenantID, kind)
}

func getIntegration(ctx context.Context, q execer, tenantID, kind string) (*IntegrationRecord, error) {
	r, err := scanIntegration(q.QueryRowContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE tenant_id = ? AND kind = ?`, tenantID, kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %s: %w", kind, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return r, nil
}

// ListIntegrations returns the tenant's integrations by kind.
func (db *DB) ListIntegrations(ctx context.Context, tenantID string) ([]IntegrationRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+integrationColumns+` FROM integrations
		WHERE tenant_id = ? ORDER BY kind`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query integrations: %w", err)
	}
	defer rows.Close()

	list := []IntegrationRecord{}
	for rows.Next() {
		r, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

// UpsertIntegration creates or replaces the tenant's integration of r.Kind.
// There is at most one integration per tenant and kind.
func (db *DB) UpsertIntegration(ctx context.Context, r *IntegrationRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.now()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getIntegration(ctx, tx, r.TenantID, r.Kind)
		switch {
		case err == nil:
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
			r.LastCheckedAt = existing.LastCheckedAt
			r.LastStatus = existing.LastStatus
			r.UpdatedAt = now
			_, err = tx.ExecContext(ctx, `UPDATE integrations
				SET name = ?, enabled = ?, settings_encrypted = ?, updated_at = ?
				WHERE tenant_id = ? AND id = ?`,
				r.Name, r.Enabled, nullString(r.SettingsEncrypted), now, r.TenantID, r.ID)
			if err != nil {
				return fmt.Errorf("failed to update integration: %w", err)
			}
			return nil
		case errors.Is(err, ErrNotFound):
			r.ID = uuid.New().String()
			r.CreatedAt, r.UpdatedAt = now, now
			_, err = tx.ExecContext(ctx, `INSERT INTO integrations (`+integrationColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
				r.ID, r.TenantID, r.Kind, r.Name, r.Enabled, nullString(r.SettingsEncrypted), now, now)
			if err != nil {
				return fmt.Errorf("failed to insert integration: %w", err)
			}
			return nil
		default:
			return err
		}
	})
}

// RecordIntegrationCheck stores the outcome of a connectivity test.
func (db *DB) RecordIntegrationCheck(ctx context.Context, tenantID, kind, status string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `UPDATE integrations SET last_checked_at = ?, last_status = ?
		WHERE tenant_id = ? AND kind = ?`, at.UTC(), status, tenantID, kind)
	if err != nil {
		return fmt.Errorf("failed to record integration check: %w", err)
	}
	return requireOneRow(result, "integration "+kind)
}
