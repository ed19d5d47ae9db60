// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// StaleAfter is how long a load may go without a ping before the map flags it.
const StaleAfter = 2 * time.Hour

// maxTrailPoints caps a single trail response. Longer trails keep their
// most recent points.
const maxTrailPoints = 5000

// TrackingActor is recorded in load history for status changes caused by pings.
const TrackingActor = "tracking"

// MapFilter narrows the tracking map. Empty fields do not filter.
type MapFilter struct {
	Statuses  []string
	CarrierID string
	BBox      *models.BoundingBox
	Since     *time.Time
}

// PositionResult is a stored ping and, for the first ping on a booked load,
// the resulting status change.
type PositionResult struct {
	Position *models.Position
	Load     *models.Load
	Change   *models.LoadStatusChange
}

// RecordPosition stores a ping for a booked or in-transit load. The first
// ping on a booked load moves it to in_transit.
func (db *DB) RecordPosition(ctx context.Context, tenantID, loadID string, req models.PositionRequest) (*PositionResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.now()
	p := &models.Position{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		LoadID:     loadID,
		Lat:        req.Lat,
		Lon:        req.Lon,
		SpeedMph:   req.SpeedMph,
		Heading:    req.Heading,
		RecordedAt: now,
		Source:     req.Source,
	}
	if req.RecordedAt != nil && !req.RecordedAt.IsZero() {
		p.RecordedAt = req.RecordedAt.UTC()
	}
	if p.Source == "" {
		p.Source = "api"
	}

	out := &PositionResult{Position: p}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		load, err := getLoad(ctx, tx, tenantID, loadID)
		if err != nil {
			return err
		}
		if load.Status != models.LoadBooked && load.Status != models.LoadInTransit {
			return fmt.Errorf("load %s is %s, tracking needs a booked or in-transit load: %w",
				loadID, load.Status, ErrInvalidTransition)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO positions
			(id, tenant_id, load_id, lat, lon, speed_mph, heading, recorded_at, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, tenantID, loadID, p.Lat, p.Lon, p.SpeedMph, p.Heading, p.RecordedAt, p.Source); err != nil {
			return fmt.Errorf("failed to insert position: %w", err)
		}

		if load.Status == models.LoadBooked {
			change, err := db.transitionLoadTx(ctx, tx, load, models.LoadInTransit, TrackingActor, "first position received")
			if err != nil {
				return err
			}
			out.Change = change
		}
		out.Load = load
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TrackingMap returns the latest position of every tracked load that passes
// the filter, most recently seen first.
func (db *DB) TrackingMap(ctx context.Context, tenantID string, f MapFilter) ([]models.MapEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses := []string{"p.rn = 1"}
	args := []interface{}{tenantID, tenantID}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		clauses = append(clauses, "l.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.CarrierID != "" {
		clauses = append(clauses, "l.carrier_id = ?")
		args = append(args, f.CarrierID)
	}
	if f.BBox != nil {
		clauses = append(clauses, "p.lat BETWEEN ? AND ?", "p.lon BETWEEN ? AND ?")
		args = append(args, f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLon, f.BBox.MaxLon)
	}
	if f.Since != nil {
		clauses = append(clauses, "p.recorded_at >= ?")
		args = append(args, f.Since.UTC())
	}

	rows, err := db.conn.QueryContext(ctx, `WITH latest AS (
			SELECT id, load_id, lat, lon, speed_mph, heading, recorded_at, source,
				ROW_NUMBER() OVER (PARTITION BY load_id ORDER BY recorded_at DESC, id DESC) AS rn
			FROM positions WHERE tenant_id = ?
		)
		SELECT l.id, l.reference, l.status, l.carrier_id, c.name,
			l.origin_city, l.origin_state, l.origin_lat, l.origin_lon,
			l.destination_city, l.destination_state, l.destination_lat, l.destination_lon,
			p.id, p.lat, p.lon, p.speed_mph, p.heading, p.recorded_at, p.source
		FROM latest p
		JOIN loads l ON l.id = p.load_id AND l.tenant_id = ?
		LEFT JOIN carriers c ON c.id = l.carrier_id AND c.tenant_id = l.tenant_id
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY p.recorded_at DESC, l.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking map: %w", err)
	}
	defer rows.Close()

	now := db.now()
	entries := []models.MapEntry{}
	for rows.Next() {
		var (
			e                                      models.MapEntry
			carrierID, carrierName                 sql.NullString
			originLat, originLon, destLat, destLon sql.NullFloat64
		)
		if err := rows.Scan(&e.LoadID, &e.Reference, &e.Status, &carrierID, &carrierName,
			&e.Origin.City, &e.Origin.State, &originLat, &originLon,
			&e.Destination.City, &e.Destination.State, &destLat, &destLon,
			&e.Position.ID, &e.Position.Lat, &e.Position.Lon, &e.Position.SpeedMph, &e.Position.Heading,
			&e.Position.RecordedAt, &e.Position.Source); err != nil {
			return nil, fmt.Errorf("failed to scan tracking map entry: %w", err)
		}
		e.CarrierID = carrierID.String
		e.CarrierName = carrierName.String
		e.Origin.Lat, e.Origin.Lon = originLat.Float64, originLon.Float64
		e.Destination.Lat, e.Destination.Lon = destLat.Float64, destLon.Float64
		e.Position.TenantID = tenantID
		e.Position.LoadID = e.LoadID
		e.Position.RecordedAt = e.Position.RecordedAt.UTC()
		e.Stale = now.Sub(e.Position.RecordedAt) > StaleAfter
		e.LastSeenAgo = humanize.RelTime(e.Position.RecordedAt, now, "ago", "from now")
		e.AsOf = now
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking map: %w", err)
	}
	return entries, nil
}

// Trail returns a load's latest positions, oldest first. limit is clamped
// to maxTrailPoints; zero or less means the maximum.
func (db *DB) Trail(ctx context.Context, tenantID, loadID string, since *time.Time, limit int) ([]models.Position, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := getLoad(ctx, db.conn, tenantID, loadID); err != nil {
		return nil, err
	}

	query := `SELECT id, tenant_id, load_id, lat, lon, speed_mph, heading, recorded_at, source
		FROM positions WHERE tenant_id = ? AND load_id = ?`
	args := []interface{}{tenantID, loadID}
	if since != nil {
		query += ` AND recorded_at >= ?`
		args = append(args, since.UTC())
	}
	if limit <= 0 || limit > maxTrailPoints {
		limit = maxTrailPoints
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trail: %w", err)
	}
	defer rows.Close()

	trail := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.TenantID, &p.LoadID, &p.Lat, &p.Lon, &p.SpeedMph, &p.Heading,
			&p.RecordedAt, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.RecordedAt = p.RecordedAt.UTC()
		trail = append(trail, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trail: %w", err)
	}
	slices.Reverse(trail)
	return trail, nil
}
