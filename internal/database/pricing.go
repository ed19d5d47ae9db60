// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"math"

	"github.com/tomtom215/haulbase/internal/models"
)

// Per-mile linehaul rates in cents by equipment type.
var perMileRateCents = map[string]int64{
	"dry_van": 250,
	"reefer":  300,
	"flatbed": 285,
}

const (
	defaultPerMileRateCents = 260
	fuelSurchargePercent    = 18
	roadDistanceFactor      = 1.2
	earthRadiusMiles        = 3958.8
)

// PerMileRate returns the linehaul rate in cents for an equipment type.
func PerMileRate(equipmentType string) int64 {
	if rate, ok := perMileRateCents[equipmentType]; ok {
		return rate
	}
	return defaultPerMileRateCents
}

// HaversineMiles returns the great-circle distance between two points.
func HaversineMiles(a, b models.Location) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// EstimateRoadMiles scales the straight-line distance by a road factor and
// rounds to one decimal.
func EstimateRoadMiles(a, b models.Location) float64 {
	return math.Round(HaversineMiles(a, b)*roadDistanceFactor*10) / 10
}

// PriceQuote fills distance, linehaul, fuel surcharge and total on q.
// A zero DistanceMiles is derived from the origin and destination coordinates.
func PriceQuote(q *models.Quote) {
	if q.DistanceMiles <= 0 {
		q.DistanceMiles = EstimateRoadMiles(q.Origin, q.Destination)
	}
	q.LinehaulCents = int64(math.Round(q.DistanceMiles * float64(PerMileRate(q.EquipmentType))))
	q.FuelSurchargeCents = (q.LinehaulCents*fuelSurchargePercent + 50) / 100
	q.TotalCents = q.LinehaulCents + q.FuelSurchargeCents + q.AccessorialsCents
}
