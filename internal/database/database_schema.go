// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
database_schema.go - Database Schema Management

Tables:
  - users: login accounts, one tenant each
  - carriers: trucking companies, unique DOT number per tenant
  - loads, load_status_history: shipments and every status change
  - quotes: priced lane offers that can convert into loads
  - bids: load board offers from carriers
  - equipment_types: reference catalogue for trailer types (global)
  - workflow_definitions, workflow_executions: configurable processes
  - folders, documents: document tree metadata (contents live in badger)
  - positions: GPS pings for loads in motion
  - roles: permission bundles mirrored into the casbin enforcer
  - integrations: per-tenant outside-system settings (encrypted)

Every business table carries tenant_id and every query filters on it.
Uniqueness rules that involve rows which are later updated are enforced in
the store rather than with UNIQUE indexes, because DuckDB rewrites updates
on indexed rows as delete+insert and rejects them inside one transaction.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS carriers (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			mc_number TEXT,
			dot_number TEXT,
			status TEXT NOT NULL,
			contact_name TEXT,
			phone TEXT,
			email TEXT,
			equipment_types TEXT NOT NULL DEFAULT '[]',
			insurance_expires_at TIMESTAMP,
			safety_rating TEXT,
			authority_status TEXT,
			last_verified_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS loads (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			reference TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			origin_city TEXT NOT NULL,
			origin_state TEXT NOT NULL,
			origin_lat DOUBLE,
			origin_lon DOUBLE,
			destination_city TEXT NOT NULL,
			destination_state TEXT NOT NULL,
			destination_lat DOUBLE,
			destination_lon DOUBLE,
			pickup_at TIMESTAMP NOT NULL,
			delivery_at TIMESTAMP NOT NULL,
			delivered_at TIMESTAMP,
			equipment_type TEXT NOT NULL,
			weight_lbs INTEGER NOT NULL DEFAULT 0,
			commodity TEXT,
			rate_cents BIGINT NOT NULL DEFAULT 0,
			carrier_rate_cents BIGINT NOT NULL DEFAULT 0,
			carrier_id TEXT,
			status TEXT NOT NULL,
			posted_to_board BOOLEAN NOT NULL DEFAULT false,
			quote_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS load_status_history (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			load_id TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			changed_by TEXT NOT NULL,
			note TEXT,
			changed_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS quotes (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			origin_city TEXT NOT NULL,
			origin_state TEXT NOT NULL,
			origin_lat DOUBLE,
			origin_lon DOUBLE,
			destination_city TEXT NOT NULL,
			destination_state TEXT NOT NULL,
			destination_lat DOUBLE,
			destination_lon DOUBLE,
			equipment_type TEXT NOT NULL,
			distance_miles DOUBLE NOT NULL,
			weight_lbs INTEGER NOT NULL DEFAULT 0,
			linehaul_cents BIGINT NOT NULL,
			fuel_surcharge_cents BIGINT NOT NULL,
			accessorials_cents BIGINT NOT NULL DEFAULT 0,
			total_cents BIGINT NOT NULL,
			status TEXT NOT NULL,
			valid_until TIMESTAMP NOT NULL,
			load_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bids (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			load_id TEXT NOT NULL,
			carrier_id TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			notes TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS equipment_types (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			max_weight_lbs INTEGER NOT NULL,
			length_ft INTEGER NOT NULL,
			refrigerated BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS workflow_definitions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			trigger_type TEXT NOT NULL,
			trigger_status TEXT,
			enabled BOOLEAN NOT NULL DEFAULT true,
			steps TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS workflow_executions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			definition_id TEXT NOT NULL,
			subject_type TEXT,
			subject_id TEXT,
			status TEXT NOT NULL,
			current_step TEXT NOT NULL,
			history TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			parent_id TEXT,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			folder_id TEXT,
			name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			sha256 TEXT NOT NULL,
			entity_type TEXT,
			entity_id TEXT,
			uploaded_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			load_id TEXT NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			speed_mph DOUBLE NOT NULL DEFAULT 0,
			heading INTEGER NOT NULL DEFAULT 0,
			recorded_at TIMESTAMP NOT NULL,
			source TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			name TEXT PRIMARY KEY,
			description TEXT,
			built_in BOOLEAN NOT NULL DEFAULT false,
			permissions TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS integrations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT false,
			settings_encrypted TEXT,
			last_checked_at TIMESTAMP,
			last_status TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
}

// createIndexes creates indexes for the common tenant-scoped filters.
// Only non-updated columns are indexed.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_carriers_tenant ON carriers(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_tenant ON loads(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_load ON load_status_history(tenant_id, load_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_tenant ON quotes(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_load ON bids(tenant_id, load_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_definition ON workflow_executions(tenant_id, definition_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_load ON positions(tenant_id, load_id, recorded_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}
