// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package database is the DuckDB-backed store for every Haulbase entity.
//
// # Overview
//
// All business rows carry a tenant_id, and every exported method that reads
// or writes them takes the tenant explicitly. A row that exists under another
// tenant is reported as ErrNotFound.
//
// Files are organized by entity:
//   - database.go, database_connection.go, database_schema.go, migrations.go: lifecycle and schema
//   - users.go, carriers.go, loads.go, quotes.go, bids.go: core freight records
//   - equipment.go: catalogue lookup with table-name fallback
//   - workflows.go: workflow definitions and executions (the engine lives in internal/workflow)
//   - documents.go: folder tree and document metadata (contents live in internal/documents)
//   - tracking.go: position ingest, latest-position map and trails
//   - permissions.go, integrations.go: roles and per-tenant integration settings
//   - analytics.go: dashboard aggregates and daily series
//   - seed.go: reference catalogue and demo data
//
// # Errors
//
// Store methods wrap one of the package sentinels so callers can map them to
// HTTP responses with errors.Is:
//
//	ErrNotFound          404
//	ErrConflict          409
//	ErrInvalidTransition 422
//	ErrBidNotAllowed     422
//	ErrNoEquipmentTable  503
//
// # Transactions
//
// Multi-row changes (bid acceptance, status transitions, folder moves) run in
// withTx, which retries DuckDB optimistic-concurrency conflicts a few times.
// Uniqueness rules on rows that are later updated (carrier DOT numbers,
// sibling folder names, one integration per kind) are checked inside the
// transaction instead of with UNIQUE indexes.
//
// # Usage
//
//	db, err := database.New(&cfg.Database, cfg.Equipment.TableNames)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	loads, total, err := db.ListLoads(ctx, tenantID, database.LoadFilter{
//	    Statuses: []string{models.LoadPosted},
//	}, models.Page{Limit: 50})
package database
