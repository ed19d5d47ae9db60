// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/models"
)

func TestFormatCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{123456789, "$1,234,567.89"},
		{-250, "-$2.50"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.cents); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestDashboard(t *testing.T) {
	db := setupTestDB(t)
	clock := useTestClock(db)
	ctx := context.Background()

	delivered, carrier := newBookedLoad(t, db, testTenant)
	for _, to := range []string{models.LoadInTransit, models.LoadDelivered} {
		if _, _, err := db.TransitionLoad(ctx, testTenant, delivered.ID, to, "tester", ""); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	newTestLoad(t, db, testTenant)
	newTestLoad(t, db, otherTestTenant)

	d, err := db.Dashboard(ctx, testTenant, clock.now.Add(-24*time.Hour), clock.now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.LoadsByStatus[models.LoadDelivered] != 1 || d.LoadsByStatus[models.LoadDraft] != 1 {
		t.Errorf("loads by status = %v", d.LoadsByStatus)
	}
	if d.RevenueCents != 300000 || d.CarrierCostCents != 250000 || d.MarginCents != 50000 {
		t.Errorf("financials revenue=%d cost=%d margin=%d", d.RevenueCents, d.CarrierCostCents, d.MarginCents)
	}
	if d.MarginPercent != 16.67 {
		t.Errorf("margin percent = %v, want 16.67", d.MarginPercent)
	}
	if d.RevenueDisplay != "$3,000.00" {
		t.Errorf("revenue display = %q", d.RevenueDisplay)
	}
	if d.OnTimePercent != 100 || d.DeliveredLoads != 1 {
		t.Errorf("on time = %v delivered = %d", d.OnTimePercent, d.DeliveredLoads)
	}
	if len(d.TopLanes) != 1 || d.TopLanes[0].OriginState != "IL" || d.TopLanes[0].Loads != 2 {
		t.Errorf("top lanes = %+v", d.TopLanes)
	}
	if len(d.TopCarriers) != 1 || d.TopCarriers[0].CarrierID != carrier.ID || d.TopCarriers[0].CarrierName != carrier.Name {
		t.Errorf("top carriers = %+v", d.TopCarriers)
	}
	if d.TotalBids != 1 || d.AvgBidsPerPosting != 1 {
		t.Errorf("bids total=%d avg=%v", d.TotalBids, d.AvgBidsPerPosting)
	}

	empty, err := db.Dashboard(ctx, testTenant, clock.now.Add(-72*time.Hour), clock.now.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("empty Dashboard: %v", err)
	}
	if len(empty.LoadsByStatus) != 0 || empty.MarginPercent != 0 || empty.TopLanes == nil {
		t.Errorf("empty range dashboard = %+v", empty)
	}
}

func TestLoadsByDay(t *testing.T) {
	db := setupTestDB(t)
	clock := useTestClock(db)
	ctx := context.Background()

	newTestLoad(t, db, testTenant)
	newTestLoad(t, db, testTenant)

	series, err := db.LoadsByDay(ctx, testTenant, clock.now.Add(-48*time.Hour), clock.now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LoadsByDay: %v", err)
	}
	want := []models.DailyCount{
		{Day: "2026-02-28", Loads: 0},
		{Day: "2026-03-01", Loads: 0},
		{Day: "2026-03-02", Loads: 2},
		{Day: "2026-03-03", Loads: 0},
	}
	if len(series) != len(want) {
		t.Fatalf("series = %+v", series)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}

	if _, err := db.LoadsByDay(ctx, testTenant, clock.now.Add(-400*24*time.Hour), clock.now); err == nil {
		t.Error("expected error for oversized range")
	}
}
