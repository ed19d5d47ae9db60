// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// DefaultEquipmentTypes is the catalogue written into equipment_types on first start.
var DefaultEquipmentTypes = []models.EquipmentType{
	{Code: "dry_van", Name: "53' Dry Van", Category: "van", MaxWeightLbs: 45000, LengthFt: 53},
	{Code: "reefer", Name: "53' Refrigerated", Category: "van", MaxWeightLbs: 43500, LengthFt: 53, Refrigerated: true},
	{Code: "flatbed", Name: "48' Flatbed", Category: "open_deck", MaxWeightLbs: 48000, LengthFt: 48},
	{Code: "step_deck", Name: "53' Step Deck", Category: "open_deck", MaxWeightLbs: 48000, LengthFt: 53},
	{Code: "lowboy", Name: "Lowboy", Category: "heavy_haul", MaxWeightLbs: 80000, LengthFt: 40},
	{Code: "conestoga", Name: "53' Conestoga", Category: "open_deck", MaxWeightLbs: 44000, LengthFt: 53},
	{Code: "power_only", Name: "Power Only", Category: "specialized", MaxWeightLbs: 45000, LengthFt: 0},
	{Code: "box_truck", Name: "26' Box Truck", Category: "van", MaxWeightLbs: 10000, LengthFt: 26},
}

// seedReferenceData fills the global equipment catalogue when it is empty.
func (db *DB) seedReferenceData(ctx context.Context) error {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment_types`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count equipment types: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, e := range DefaultEquipmentTypes {
		if _, err := db.conn.ExecContext(ctx, `INSERT OR IGNORE INTO equipment_types (`+equipmentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.Code, e.Name, e.Category, e.MaxWeightLbs, e.LengthFt, e.Refrigerated); err != nil {
			return fmt.Errorf("failed to seed equipment type %s: %w", e.Code, err)
		}
	}
	logging.Debug().Int("count", len(DefaultEquipmentTypes)).Msg("Seeded equipment catalogue")
	return nil
}

type seedCity struct {
	city, state string
	lat, lon    float64
}

var seedCities = []seedCity{
	{"Chicago", "IL", 41.8781, -87.6298},
	{"Dallas", "TX", 32.7767, -96.7970},
	{"Atlanta", "GA", 33.7490, -84.3880},
	{"Los Angeles", "CA", 34.0522, -118.2437},
	{"Memphis", "TN", 35.1495, -90.0490},
	{"Columbus", "OH", 39.9612, -82.9988},
	{"Denver", "CO", 39.7392, -104.9903},
	{"Phoenix", "AZ", 33.4484, -112.0740},
	{"Charlotte", "NC", 35.2271, -80.8431},
	{"Kansas City", "MO", 39.0997, -94.5786},
}

// SeedMockData fills an empty tenant with demo carriers, loads, bids and
// positions. It does nothing when the tenant already has loads.
func (db *DB) SeedMockData(ctx context.Context, tenantID string) error {
	var existing int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM loads WHERE tenant_id = ?`, tenantID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count loads: %w", err)
	}
	if existing > 0 {
		logging.Info().Str("tenant_id", tenantID).Msg("Tenant already has loads, skipping mock data")
		return nil
	}

	logging.Info().Str("tenant_id", tenantID).Msg("Seeding mock freight data")
	rng := rand.New(rand.NewPCG(42, uint64(len(tenantID))))

	carriers := []*models.Carrier{
		{Name: "Prairie Line Freight", MCNumber: "MC-100101", DOTNumber: "1000101", EquipmentTypes: []string{"dry_van", "reefer"}},
		{Name: "Blue Ridge Haulers", MCNumber: "MC-100202", DOTNumber: "1000202", EquipmentTypes: []string{"flatbed", "step_deck"}},
		{Name: "Gulf Coast Carriers", MCNumber: "MC-100303", DOTNumber: "1000303", EquipmentTypes: []string{"dry_van"}},
		{Name: "Summit Transport", MCNumber: "MC-100404", DOTNumber: "1000404", EquipmentTypes: []string{"reefer"}},
	}
	for _, c := range carriers {
		c.TenantID = tenantID
		c.Status = models.CarrierActive
		if err := db.CreateCarrier(ctx, c); err != nil {
			return fmt.Errorf("failed to seed carrier: %w", err)
		}
	}

	equipment := []string{"dry_van", "reefer", "flatbed"}
	now := db.now()
	for i := 0; i < 24; i++ {
		origin := seedCities[rng.IntN(len(seedCities))]
		dest := seedCities[rng.IntN(len(seedCities))]
		for dest == origin {
			dest = seedCities[rng.IntN(len(seedCities))]
		}
		pickup := now.Add(time.Duration(rng.IntN(14*24)-7*24) * time.Hour)
		miles := EstimateRoadMiles(models.Location{Lat: origin.lat, Lon: origin.lon}, models.Location{Lat: dest.lat, Lon: dest.lon})
		eq := equipment[rng.IntN(len(equipment))]

		load := &models.Load{
			TenantID:      tenantID,
			CustomerName:  fmt.Sprintf("Shipper %02d", rng.IntN(8)+1),
			Origin:        models.Location{City: origin.city, State: origin.state, Lat: origin.lat, Lon: origin.lon},
			Destination:   models.Location{City: dest.city, State: dest.state, Lat: dest.lat, Lon: dest.lon},
			PickupAt:      pickup,
			DeliveryAt:    pickup.Add(time.Duration(miles/50+8) * time.Hour),
			EquipmentType: eq,
			WeightLbs:     20000 + rng.IntN(22000),
			Commodity:     "General freight",
			RateCents:     int64(miles * float64(PerMileRate(eq)) * 1.25),
		}
		if err := db.CreateLoad(ctx, load); err != nil {
			return fmt.Errorf("failed to seed load: %w", err)
		}
		if err := db.seedLoadProgress(ctx, load, carriers, rng, i%4); err != nil {
			return err
		}
	}
	return nil
}

// seedLoadProgress walks a seeded load to one of four stages:
// draft, posted with bids, in transit with pings, or delivered.
func (db *DB) seedLoadProgress(ctx context.Context, load *models.Load, carriers []*models.Carrier, rng *rand.Rand, stage int) error {
	const actor = "seed"
	if stage == 0 {
		return nil
	}
	if _, _, err := db.TransitionLoad(ctx, load.TenantID, load.ID, models.LoadPosted, actor, ""); err != nil {
		return fmt.Errorf("failed to post seeded load: %w", err)
	}

	var firstBid *models.Bid
	for i, c := range carriers[:1+rng.IntN(len(carriers))] {
		bid, _, err := db.PlaceBid(ctx, load.TenantID, load.ID, models.BidRequest{
			CarrierID:   c.ID,
			AmountCents: load.RateCents*80/100 + int64(rng.IntN(20000)),
		})
		if err != nil {
			return fmt.Errorf("failed to seed bid: %w", err)
		}
		if i == 0 {
			firstBid = bid
		}
	}
	if stage == 1 {
		return nil
	}

	if _, err := db.AcceptBid(ctx, load.TenantID, firstBid.ID, actor); err != nil {
		return fmt.Errorf("failed to accept seeded bid: %w", err)
	}
	origin := load.Origin
	for i := 0; i < 3; i++ {
		f := float64(i+1) / 4
		if _, err := db.RecordPosition(ctx, load.TenantID, load.ID, models.PositionRequest{
			Lat:      origin.Lat + (load.Destination.Lat-origin.Lat)*f,
			Lon:      origin.Lon + (load.Destination.Lon-origin.Lon)*f,
			SpeedMph: 55 + float64(rng.IntN(10)),
			Heading:  rng.IntN(360),
			Source:   "eld",
		}); err != nil {
			return fmt.Errorf("failed to seed position: %w", err)
		}
	}
	if stage == 2 {
		return nil
	}

	if _, _, err := db.TransitionLoad(ctx, load.TenantID, load.ID, models.LoadDelivered, actor, ""); err != nil {
		return fmt.Errorf("failed to deliver seeded load: %w", err)
	}
	return nil
}
