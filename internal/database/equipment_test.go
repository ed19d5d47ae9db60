// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/haulbase/internal/models"
)

func TestEquipment_DefaultTable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	vans, err := db.ListEquipment(ctx, "van")
	if err != nil {
		t.Fatalf("ListEquipment: %v", err)
	}
	if len(vans) == 0 {
		t.Fatal("expected van equipment")
	}
	for _, e := range vans {
		if e.Category != "van" {
			t.Errorf("category filter leaked %s", e.Code)
		}
	}
	if db.EquipmentTable() != "equipment_types" {
		t.Errorf("resolved table = %q", db.EquipmentTable())
	}

	reefer, err := db.GetEquipment(ctx, "reefer")
	if err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if !reefer.Refrigerated {
		t.Error("reefer should be refrigerated")
	}

	if _, err := db.GetEquipment(ctx, "hovercraft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown code error = %v, want ErrNotFound", err)
	}
}

func TestEquipment_FallsThroughMissingTables(t *testing.T) {
	db := setupTestDB(t, "fleet_equipment", "equipment_types")

	list, err := db.ListEquipment(context.Background(), "")
	if err != nil {
		t.Fatalf("ListEquipment: %v", err)
	}
	if len(list) != len(DefaultEquipmentTypes) {
		t.Errorf("got %d types, want %d", len(list), len(DefaultEquipmentTypes))
	}
	if db.EquipmentTable() != "equipment_types" {
		t.Errorf("resolved table = %q, want equipment_types", db.EquipmentTable())
	}
}

func TestEquipment_NoTable(t *testing.T) {
	db := setupTestDB(t, "fleet_equipment", "equipment")
	ctx := context.Background()

	if _, err := db.ListEquipment(ctx, ""); !errors.Is(err, ErrNoEquipmentTable) {
		t.Fatalf("error = %v, want ErrNoEquipmentTable", err)
	}
	if _, err := db.GetEquipment(ctx, "dry_van"); !errors.Is(err, ErrNoEquipmentTable) {
		t.Fatalf("error = %v, want ErrNoEquipmentTable", err)
	}

	// A table created later is picked up without restarting.
	if _, err := db.Conn().ExecContext(ctx, `CREATE TABLE equipment (
		code TEXT PRIMARY KEY, name TEXT, category TEXT,
		max_weight_lbs INTEGER, length_ft INTEGER, refrigerated BOOLEAN)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Conn().ExecContext(ctx,
		`INSERT INTO equipment VALUES ('hotshot', '40'' Hotshot', 'specialized', 16500, 40, false)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	e, err := db.GetEquipment(ctx, "hotshot")
	if err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if e.Name != "40' Hotshot" || db.EquipmentTable() != "equipment" {
		t.Errorf("got %+v from %q", e, db.EquipmentTable())
	}

	if _, err := db.Conn().ExecContext(ctx, `DROP TABLE equipment`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := db.GetEquipment(ctx, "hotshot"); !errors.Is(err, ErrNoEquipmentTable) {
		t.Errorf("after drop error = %v, want ErrNoEquipmentTable", err)
	}
	if db.EquipmentTable() != "" {
		t.Errorf("resolved table should be forgotten, got %q", db.EquipmentTable())
	}
}

func TestLoadsForEquipment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	newTestLoad(t, db, testTenant)
	newTestLoad(t, db, otherTestTenant)

	loads, total, err := db.LoadsForEquipment(ctx, testTenant, "dry_van", models.Page{Limit: 10})
	if err != nil {
		t.Fatalf("LoadsForEquipment: %v", err)
	}
	if total != 1 || len(loads) != 1 {
		t.Errorf("total=%d len=%d, want 1", total, len(loads))
	}

	if _, _, err := db.LoadsForEquipment(ctx, testTenant, "hovercraft", models.Page{Limit: 10}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown equipment error = %v, want ErrNotFound", err)
	}
}
