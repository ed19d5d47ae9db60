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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// LoadFilter narrows a load listing. Empty fields do not filter.
type LoadFilter struct {
	Statuses         []string
	CarrierID        string
	EquipmentType    string
	OriginState      string
	DestinationState string
	PickupFrom       *time.Time
	PickupTo         *time.Time
}

const loadColumns = `id, tenant_id, reference, customer_name,
	origin_city, origin_state, origin_lat, origin_lon,
	destination_city, destination_state, destination_lat, destination_lon,
	pickup_at, delivery_at, delivered_at, equipment_type, weight_lbs, commodity,
	rate_cents, carrier_rate_cents, carrier_id, status, posted_to_board, quote_id,
	created_at, updated_at`

// prefixedLoadColumns qualifies loadColumns with a table alias.
func prefixedLoadColumns(alias string) string {
	parts := strings.Split(loadColumns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// loadNulls holds the nullable columns of a load row while scanning.
type loadNulls struct {
	originLat, originLon, destLat, destLon sql.NullFloat64
	delivered                              sql.NullTime
	commodity, carrierID, quoteID          sql.NullString
}

func (n *loadNulls) targets(l *models.Load) []interface{} {
	return []interface{}{
		&l.ID, &l.TenantID, &l.Reference, &l.CustomerName,
		&l.Origin.City, &l.Origin.State, &n.originLat, &n.originLon,
		&l.Destination.City, &l.Destination.State, &n.destLat, &n.destLon,
		&l.PickupAt, &l.DeliveryAt, &n.delivered, &l.EquipmentType, &l.WeightLbs, &n.commodity,
		&l.RateCents, &l.CarrierRateCents, &n.carrierID, &l.Status, &l.PostedToBoard, &n.quoteID,
		&l.CreatedAt, &l.UpdatedAt,
	}
}

func (n *loadNulls) apply(l *models.Load) {
	l.Origin.Lat, l.Origin.Lon = n.originLat.Float64, n.originLon.Float64
	l.Destination.Lat, l.Destination.Lon = n.destLat.Float64, n.destLon.Float64
	l.DeliveredAt = timePtr(n.delivered)
	l.Commodity = n.commodity.String
	l.CarrierID = stringPtr(n.carrierID)
	l.QuoteID = stringPtr(n.quoteID)
}

func scanLoad(row scanner) (*models.Load, error) {
	l := &models.Load{}
	var n loadNulls
	if err := row.Scan(n.targets(l)...); err != nil {
		return nil, err
	}
	n.apply(l)
	return l, nil
}

// NewLoadReference builds a reference of the form LD-20260302-4F1A9C.
func NewLoadReference(now time.Time) string {
	return fmt.Sprintf("LD-%s-%s", now.UTC().Format("20060102"),
		strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6]))
}

func insertLoad(ctx context.Context, q execer, l *models.Load) error {
	_, err := q.ExecContext(ctx, `INSERT INTO loads (`+loadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.TenantID, l.Reference, l.CustomerName,
		l.Origin.City, strings.ToUpper(l.Origin.State), l.Origin.Lat, l.Origin.Lon,
		l.Destination.City, strings.ToUpper(l.Destination.State), l.Destination.Lat, l.Destination.Lon,
		l.PickupAt.UTC(), l.DeliveryAt.UTC(), nullTime(l.DeliveredAt), l.EquipmentType, l.WeightLbs, nullString(l.Commodity),
		l.RateCents, l.CarrierRateCents, nullStringPtr(l.CarrierID), l.Status, l.PostedToBoard, nullStringPtr(l.QuoteID),
		l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert load: %w", err)
	}
	return nil
}

// CreateLoad inserts a draft load, generating a reference when none is given.
func (db *DB) CreateLoad(ctx context.Context, l *models.Load) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.prepareNewLoad(l)
	return insertLoad(ctx, db.conn, l)
}

func (db *DB) prepareNewLoad(l *models.Load) {
	now := db.now()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Reference == "" {
		l.Reference = NewLoadReference(now)
	}
	l.Status = models.LoadDraft
	l.PostedToBoard = false
	l.CarrierID = nil
	l.CarrierRateCents = 0
	l.Origin.State = strings.ToUpper(l.Origin.State)
	l.Destination.State = strings.ToUpper(l.Destination.State)
	l.CreatedAt, l.UpdatedAt = now, now
}

// GetLoad returns one load of the tenant.
func (db *DB) GetLoad(ctx context.Context, tenantID, id string) (*models.Load, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getLoad(ctx, db.conn, tenantID, id)
}

func getLoad(ctx context.Context, q execer, tenantID, id string) (*models.Load, error) {
	l, err := scanLoad(q.QueryRowContext(ctx,
		`SELECT `+loadColumns+` FROM loads WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load: %w", err)
	}
	return l, nil
}

// buildLoadWhere turns a LoadFilter into a parameterized WHERE clause on alias.
func buildLoadWhere(alias, tenantID string, f LoadFilter) (string, []interface{}) {
	col := func(name string) string { return alias + "." + name }

	clauses := []string{col("tenant_id") + " = ?"}
	args := []interface{}{tenantID}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		clauses = append(clauses, col("status")+" IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.CarrierID != "" {
		clauses = append(clauses, col("carrier_id")+" = ?")
		args = append(args, f.CarrierID)
	}
	if f.EquipmentType != "" {
		clauses = append(clauses, col("equipment_type")+" = ?")
		args = append(args, f.EquipmentType)
	}
	if f.OriginState != "" {
		clauses = append(clauses, col("origin_state")+" = ?")
		args = append(args, strings.ToUpper(f.OriginState))
	}
	if f.DestinationState != "" {
		clauses = append(clauses, col("destination_state")+" = ?")
		args = append(args, strings.ToUpper(f.DestinationState))
	}
	if f.PickupFrom != nil {
		clauses = append(clauses, col("pickup_at")+" >= ?")
		args = append(args, f.PickupFrom.UTC())
	}
	if f.PickupTo != nil {
		clauses = append(clauses, col("pickup_at")+" <= ?")
		args = append(args, f.PickupTo.UTC())
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListLoads returns loads matching the filter, most recent pickup first.
func (db *DB) ListLoads(ctx context.Context, tenantID string, f LoadFilter, page models.Page) ([]models.Load, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildLoadWhere("l", tenantID, f)

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM loads l `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loads: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+prefixedLoadColumns("l")+` FROM loads l `+where+` ORDER BY l.pickup_at DESC, l.id LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	loads := []models.Load{}
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan load: %w", err)
		}
		loads = append(loads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating loads: %w", err)
	}
	return loads, total, nil
}

// UpdateLoad overwrites the shipment details of a draft or posted load.
func (db *DB) UpdateLoad(ctx context.Context, l *models.Load) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getLoad(ctx, tx, l.TenantID, l.ID)
		if err != nil {
			return err
		}
		if !models.IsLoadEditable(current.Status) {
			return fmt.Errorf("load %s is %s and can no longer be edited: %w", l.ID, current.Status, ErrInvalidTransition)
		}

		l.UpdatedAt = db.now()
		if l.Reference == "" {
			l.Reference = current.Reference
		}
		_, err = tx.ExecContext(ctx, `UPDATE loads SET
				reference = ?, customer_name = ?,
				origin_city = ?, origin_state = ?, origin_lat = ?, origin_lon = ?,
				destination_city = ?, destination_state = ?, destination_lat = ?, destination_lon = ?,
				pickup_at = ?, delivery_at = ?, equipment_type = ?, weight_lbs = ?, commodity = ?,
				rate_cents = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?`,
			l.Reference, l.CustomerName,
			l.Origin.City, strings.ToUpper(l.Origin.State), l.Origin.Lat, l.Origin.Lon,
			l.Destination.City, strings.ToUpper(l.Destination.State), l.Destination.Lat, l.Destination.Lon,
			l.PickupAt.UTC(), l.DeliveryAt.UTC(), l.EquipmentType, l.WeightLbs, nullString(l.Commodity),
			l.RateCents, l.UpdatedAt, l.TenantID, l.ID)
		if err != nil {
			return fmt.Errorf("failed to update load: %w", err)
		}

		l.Status = current.Status
		l.PostedToBoard = current.PostedToBoard
		l.CarrierID = current.CarrierID
		l.CarrierRateCents = current.CarrierRateCents
		l.QuoteID = current.QuoteID
		l.CreatedAt = current.CreatedAt
		return nil
	})
}

// TransitionLoad moves a load to a new status and records the change.
func (db *DB) TransitionLoad(ctx context.Context, tenantID, id, to, actor, note string) (*models.Load, *models.LoadStatusChange, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		load   *models.Load
		change *models.LoadStatusChange
	)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getLoad(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		change, err = db.transitionLoadTx(ctx, tx, current, to, actor, note)
		if err != nil {
			return err
		}
		load = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return load, change, nil
}

// transitionLoadTx applies a status change to l inside tx and updates l in place.
func (db *DB) transitionLoadTx(ctx context.Context, tx *sql.Tx, l *models.Load, to, actor, note string) (*models.LoadStatusChange, error) {
	if !models.CanTransitionLoad(l.Status, to) {
		return nil, fmt.Errorf("load %s cannot move from %s to %s: %w", l.ID, l.Status, to, ErrInvalidTransition)
	}
	if to == models.LoadBooked && l.CarrierID == nil {
		return nil, fmt.Errorf("load %s has no carrier assigned: %w", l.ID, ErrInvalidTransition)
	}

	now := db.now()
	from := l.Status
	l.Status = to
	l.PostedToBoard = to == models.LoadPosted
	l.UpdatedAt = now
	if to == models.LoadDelivered {
		l.DeliveredAt = &now
	}

	_, err := tx.ExecContext(ctx, `UPDATE loads SET status = ?, posted_to_board = ?, delivered_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		l.Status, l.PostedToBoard, nullTime(l.DeliveredAt), now, l.TenantID, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update load status: %w", err)
	}

	if to == models.LoadDraft || to == models.LoadCancelled {
		// Leaving the board closes every open bid.
		if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = ?, updated_at = ?
			WHERE tenant_id = ? AND load_id = ? AND status = ?`,
			models.BidRejected, now, l.TenantID, l.ID, models.BidOpen); err != nil {
			return nil, fmt.Errorf("failed to close open bids: %w", err)
		}
	}

	change := &models.LoadStatusChange{
		ID:         uuid.New().String(),
		LoadID:     l.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  actor,
		Note:       note,
		ChangedAt:  now,
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO load_status_history
		(id, tenant_id, load_id, from_status, to_status, changed_by, note, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		change.ID, l.TenantID, l.ID, from, to, actor, nullString(note), now)
	if err != nil {
		return nil, fmt.Errorf("failed to record status history: %w", err)
	}
	return change, nil
}

// LoadHistory returns the status changes of a load, oldest first.
func (db *DB) LoadHistory(ctx context.Context, tenantID, loadID string) ([]models.LoadStatusChange, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := getLoad(ctx, db.conn, tenantID, loadID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT id, load_id, from_status, to_status, changed_by, COALESCE(note, ''), changed_at
		FROM load_status_history WHERE tenant_id = ? AND load_id = ? ORDER BY changed_at, id`, tenantID, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query load history: %w", err)
	}
	defer rows.Close()

	history := []models.LoadStatusChange{}
	for rows.Next() {
		var c models.LoadStatusChange
		if err := rows.Scan(&c.ID, &c.LoadID, &c.FromStatus, &c.ToStatus, &c.ChangedBy, &c.Note, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan load history: %w", err)
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

// DeleteLoad removes a draft load together with its history.
func (db *DB) DeleteLoad(ctx context.Context, tenantID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getLoad(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if current.Status != models.LoadDraft {
			return fmt.Errorf("only draft loads can be deleted, load %s is %s: %w", id, current.Status, ErrInvalidTransition)
		}
		for _, q := range []string{
			`DELETE FROM load_status_history WHERE tenant_id = ? AND load_id = ?`,
			`DELETE FROM bids WHERE tenant_id = ? AND load_id = ?`,
			`DELETE FROM loads WHERE tenant_id = ? AND id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, tenantID, id); err != nil {
				return fmt.Errorf("failed to delete load: %w", err)
			}
		}
		return nil
	})
}
