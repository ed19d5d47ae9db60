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

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// Equipment lookups run against the first configured table that exists.
// Table names come from validated configuration only; they are identifiers
// and cannot be bound as parameters, everything else is.

const equipmentColumns = `code, name, category, max_weight_lbs, length_ft, refrigerated`

func scanEquipment(row scanner) (*models.EquipmentType, error) {
	e := &models.EquipmentType{}
	if err := row.Scan(&e.Code, &e.Name, &e.Category, &e.MaxWeightLbs, &e.LengthFt, &e.Refrigerated); err != nil {
		return nil, err
	}
	return e, nil
}

// equipmentCandidates returns the tables to try, the last resolved one first.
func (db *DB) equipmentCandidates() []string {
	db.equipmentMu.RLock()
	resolved := db.equipmentTable
	db.equipmentMu.RUnlock()

	if resolved == "" {
		return db.equipmentTables
	}
	out := make([]string, 0, len(db.equipmentTables))
	out = append(out, resolved)
	for _, t := range db.equipmentTables {
		if t != resolved {
			out = append(out, t)
		}
	}
	return out
}

func (db *DB) rememberEquipmentTable(table string) {
	db.equipmentMu.Lock()
	defer db.equipmentMu.Unlock()
	if db.equipmentTable != table {
		logging.Debug().Str("table", table).Msg("Resolved equipment table")
	}
	db.equipmentTable = table
}

func (db *DB) forgetEquipmentTable(table string) {
	db.equipmentMu.Lock()
	defer db.equipmentMu.Unlock()
	if db.equipmentTable == table {
		db.equipmentTable = ""
	}
}

// withEquipmentTable runs fn against each candidate table until one exists.
// A missing table moves on to the next candidate; any other error stops.
func (db *DB) withEquipmentTable(fn func(table string) error) error {
	for _, table := range db.equipmentCandidates() {
		err := fn(table)
		if isMissingTableError(err) {
			db.forgetEquipmentTable(table)
			logging.Debug().Str("table", table).Msg("Equipment table missing, trying next candidate")
			continue
		}
		if err != nil {
			return err
		}
		db.rememberEquipmentTable(table)
		return nil
	}
	return ErrNoEquipmentTable
}

// EquipmentTable reports the table that answered the last lookup, if any.
func (db *DB) EquipmentTable() string {
	db.equipmentMu.RLock()
	defer db.equipmentMu.RUnlock()
	return db.equipmentTable
}

// ListEquipment returns the equipment catalogue, optionally for one category.
func (db *DB) ListEquipment(ctx context.Context, category string) ([]models.EquipmentType, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var out []models.EquipmentType
	err := db.withEquipmentTable(func(table string) error {
		query := `SELECT ` + equipmentColumns + ` FROM ` + table
		var args []interface{}
		if category != "" {
			query += ` WHERE category = ?`
			args = append(args, category)
		}
		query += ` ORDER BY code`

		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		list := []models.EquipmentType{}
		for rows.Next() {
			e, err := scanEquipment(rows)
			if err != nil {
				return fmt.Errorf("failed to scan equipment: %w", err)
			}
			list = append(list, *e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoEquipmentTable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return out, nil
}

// GetEquipment returns one equipment type by code.
func (db *DB) GetEquipment(ctx context.Context, code string) (*models.EquipmentType, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var out *models.EquipmentType
	err := db.withEquipmentTable(func(table string) error {
		e, err := scanEquipment(db.conn.QueryRowContext(ctx,
			`SELECT `+equipmentColumns+` FROM `+table+` WHERE code = ?`, code))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("equipment %s: %w", code, ErrNotFound)
		}
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoEquipmentTable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return out, nil
}

// LoadsForEquipment lists the tenant's loads that need the given equipment.
// The code must exist in the catalogue.
func (db *DB) LoadsForEquipment(ctx context.Context, tenantID, code string, page models.Page) ([]models.Load, int64, error) {
	if _, err := db.GetEquipment(ctx, code); err != nil {
		return nil, 0, err
	}
	return db.ListLoads(ctx, tenantID, LoadFilter{EquipmentType: code}, page)
}
