// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import (
	"fmt"
	"math"
	"time"
)

// Position is a single GPS ping for a load in motion.
type Position struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	LoadID     string    `json:"load_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedMph   float64   `json:"speed_mph"`
	Heading    int       `json:"heading"`
	RecordedAt time.Time `json:"recorded_at"`
	Source     string    `json:"source"`
}

// PositionRequest is the body of POST /loads/{id}/tracking.
type PositionRequest struct {
	Lat        float64    `json:"lat" validate:"latitude"`
	Lon        float64    `json:"lon" validate:"longitude"`
	SpeedMph   float64    `json:"speed_mph" validate:"min=0,max=150"`
	Heading    int        `json:"heading" validate:"min=0,max=359"`
	RecordedAt *time.Time `json:"recorded_at"`
	Source     string     `json:"source" validate:"omitempty,oneof=eld mobile manual api"`
}

// MapEntry is the latest known position of one load on the tracking map.
type MapEntry struct {
	LoadID      string    `json:"load_id"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CarrierID   string    `json:"carrier_id,omitempty"`
	CarrierName string    `json:"carrier_name,omitempty"`
	Origin      Location  `json:"origin"`
	Destination Location  `json:"destination"`
	Position    Position  `json:"position"`
	Stale       bool      `json:"stale"`
	LastSeenAgo string    `json:"last_seen_ago"`
	AsOf        time.Time `json:"as_of"`
}

// BoundingBox limits the tracking map to a rectangle of coordinates.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Validate checks that the box has finite corners inside coordinate range
// and is not inverted.
func (b BoundingBox) Validate() error {
	for _, v := range [...]float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounding box coordinates must be finite numbers")
		}
	}
	switch {
	case b.MinLat < -90 || b.MaxLat > 90:
		return fmt.Errorf("latitude must be between -90 and 90")
	case b.MinLon < -180 || b.MaxLon > 180:
		return fmt.Errorf("longitude must be between -180 and 180")
	case b.MinLat > b.MaxLat:
		return fmt.Errorf("min_lat %.4f is greater than max_lat %.4f", b.MinLat, b.MaxLat)
	case b.MinLon > b.MaxLon:
		return fmt.Errorf("min_lon %.4f is greater than max_lon %.4f", b.MinLon, b.MaxLon)
	}
	return nil
}
