// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/tomtom215/haulbase/internal/models"
)

var loadReferencePattern = regexp.MustCompile(`^LD-\d{8}-[0-9A-F]{6}$`)

func TestCreateLoad_Defaults(t *testing.T) {
	db := setupTestDB(t)
	useTestClock(db)

	l := newTestLoad(t, db, testTenant)

	if !loadReferencePattern.MatchString(l.Reference) {
		t.Errorf("reference %q does not match %s", l.Reference, loadReferencePattern)
	}
	if l.Reference[3:11] != "20260302" {
		t.Errorf("reference date = %s, want 20260302", l.Reference[3:11])
	}
	if l.Status != models.LoadDraft {
		t.Errorf("status = %s, want draft", l.Status)
	}

	got, err := db.GetLoad(context.Background(), testTenant, l.ID)
	if err != nil {
		t.Fatalf("GetLoad: %v", err)
	}
	if got.Origin.State != "IL" {
		t.Errorf("origin state = %q, want upper-cased IL", got.Origin.State)
	}
	if got.Origin.Lat != l.Origin.Lat || got.Destination.Lon != l.Destination.Lon {
		t.Errorf("coordinates not round-tripped: %+v", got)
	}
}

func TestGetLoad_TenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	l := newTestLoad(t, db, testTenant)

	_, err := db.GetLoad(context.Background(), otherTestTenant, l.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant get error = %v, want ErrNotFound", err)
	}
}

func TestTransitionLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		path    []string
		wantErr error
	}{
		{"post", []string{models.LoadPosted}, nil},
		{"unpost", []string{models.LoadPosted, models.LoadDraft}, nil},
		{"cancel draft", []string{models.LoadCancelled}, nil},
		{"draft to delivered", []string{models.LoadDelivered}, ErrInvalidTransition},
		{"book without carrier", []string{models.LoadPosted, models.LoadBooked}, ErrInvalidTransition},
		{"cancelled is terminal", []string{models.LoadCancelled, models.LoadPosted}, ErrInvalidTransition},
		{"same status", []string{models.LoadDraft}, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoad(t, db, testTenant)
			var err error
			for _, to := range tt.path {
				if _, _, err = db.TransitionLoad(ctx, testTenant, l.ID, to, "tester", ""); err != nil {
					break
				}
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransitionLoad_History(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	l, _ := newBookedLoad(t, db, testTenant)
	if _, _, err := db.TransitionLoad(ctx, testTenant, l.ID, models.LoadInTransit, "driver", "picked up"); err != nil {
		t.Fatalf("in_transit: %v", err)
	}
	delivered, change, err := db.TransitionLoad(ctx, testTenant, l.ID, models.LoadDelivered, "driver", "")
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Error("delivered_at not set")
	}
	if change.FromStatus != models.LoadInTransit || change.ToStatus != models.LoadDelivered {
		t.Errorf("change = %+v", change)
	}

	history, err := db.LoadHistory(ctx, testTenant, l.ID)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	want := []string{models.LoadPosted, models.LoadBooked, models.LoadInTransit, models.LoadDelivered}
	if len(history) != len(want) {
		t.Fatalf("history has %d entries, want %d", len(history), len(want))
	}
	for i, h := range history {
		if h.ToStatus != want[i] {
			t.Errorf("history[%d].to = %s, want %s", i, h.ToStatus, want[i])
		}
	}
	if history[2].Note != "picked up" {
		t.Errorf("note = %q", history[2].Note)
	}
}

func TestUpdateLoad_OnlyEditable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	l, _ := newBookedLoad(t, db, testTenant)
	l.CustomerName = "Changed"
	if err := db.UpdateLoad(ctx, l); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("update booked load error = %v, want ErrInvalidTransition", err)
	}

	draft := newTestLoad(t, db, testTenant)
	draft.CustomerName = "Changed"
	if err := db.UpdateLoad(ctx, draft); err != nil {
		t.Fatalf("update draft: %v", err)
	}
	got, err := db.GetLoad(ctx, testTenant, draft.ID)
	if err != nil {
		t.Fatalf("GetLoad: %v", err)
	}
	if got.CustomerName != "Changed" {
		t.Errorf("customer = %q", got.CustomerName)
	}
}

func TestDeleteLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	posted := newPostedLoad(t, db, testTenant)
	if err := db.DeleteLoad(ctx, testTenant, posted.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("delete posted error = %v, want ErrInvalidTransition", err)
	}

	draft := newTestLoad(t, db, testTenant)
	if err := db.DeleteLoad(ctx, testTenant, draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := db.GetLoad(ctx, testTenant, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestListLoads_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	newTestLoad(t, db, testTenant)
	newPostedLoad(t, db, testTenant)
	_, carrier := newBookedLoad(t, db, testTenant)
	newTestLoad(t, db, otherTestTenant)

	tests := []struct {
		name   string
		filter LoadFilter
		want   int64
	}{
		{"all", LoadFilter{}, 3},
		{"posted", LoadFilter{Statuses: []string{models.LoadPosted}}, 1},
		{"draft or booked", LoadFilter{Statuses: []string{models.LoadDraft, models.LoadBooked}}, 2},
		{"carrier", LoadFilter{CarrierID: carrier.ID}, 1},
		{"origin state lower-case", LoadFilter{OriginState: "il"}, 3},
		{"equipment miss", LoadFilter{EquipmentType: "reefer"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loads, total, err := db.ListLoads(ctx, testTenant, tt.filter, models.Page{Limit: 10})
			if err != nil {
				t.Fatalf("ListLoads: %v", err)
			}
			if total != tt.want || int64(len(loads)) != tt.want {
				t.Errorf("got total=%d len=%d, want %d", total, len(loads), tt.want)
			}
		})
	}

	loads, total, err := db.ListLoads(ctx, testTenant, LoadFilter{}, models.Page{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paged ListLoads: %v", err)
	}
	if total != 3 || len(loads) != 1 {
		t.Errorf("paged: total=%d len=%d", total, len(loads))
	}
}
