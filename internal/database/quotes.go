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

// DefaultQuoteValidity is how long a quote stays open when no valid_until is given.
const DefaultQuoteValidity = 7 * 24 * time.Hour

const quoteColumns = `id, tenant_id, customer_name,
	origin_city, origin_state, origin_lat, origin_lon,
	destination_city, destination_state, destination_lat, destination_lon,
	equipment_type, distance_miles, weight_lbs,
	linehaul_cents, fuel_surcharge_cents, accessorials_cents, total_cents,
	status, valid_until, load_id, created_at, updated_at`

func (db *DB) scanQuote(row scanner) (*models.Quote, error) {
	q := &models.Quote{}
	var oLat, oLon, dLat, dLon sql.NullFloat64
	var loadID sql.NullString

	err := row.Scan(&q.ID, &q.TenantID, &q.CustomerName,
		&q.Origin.City, &q.Origin.State, &oLat, &oLon,
		&q.Destination.City, &q.Destination.State, &dLat, &dLon,
		&q.EquipmentType, &q.DistanceMiles, &q.WeightLbs,
		&q.LinehaulCents, &q.FuelSurchargeCents, &q.AccessorialsCents, &q.TotalCents,
		&q.Status, &q.ValidUntil, &loadID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Origin.Lat, q.Origin.Lon = oLat.Float64, oLon.Float64
	q.Destination.Lat, q.Destination.Lon = dLat.Float64, dLon.Float64
	q.LoadID = stringPtr(loadID)
	q.Status = q.EffectiveStatus(db.now())
	return q, nil
}

// CreateQuote prices and inserts a draft quote.
func (db *DB) CreateQuote(ctx context.Context, q *models.Quote) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.now()
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.ValidUntil.IsZero() {
		q.ValidUntil = now.Add(DefaultQuoteValidity)
	}
	q.Status = models.QuoteDraft
	q.Origin.State = strings.ToUpper(q.Origin.State)
	q.Destination.State = strings.ToUpper(q.Destination.State)
	q.CreatedAt, q.UpdatedAt = now, now
	PriceQuote(q)

	_, err := db.conn.ExecContext(ctx, `INSERT INTO quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.TenantID, q.CustomerName,
		q.Origin.City, q.Origin.State, q.Origin.Lat, q.Origin.Lon,
		q.Destination.City, q.Destination.State, q.Destination.Lat, q.Destination.Lon,
		q.EquipmentType, q.DistanceMiles, q.WeightLbs,
		q.LinehaulCents, q.FuelSurchargeCents, q.AccessorialsCents, q.TotalCents,
		q.Status, q.ValidUntil.UTC(), nullStringPtr(q.LoadID), q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetQuote returns one quote. Open quotes past valid_until read as expired.
func (db *DB) GetQuote(ctx context.Context, tenantID, id string) (*models.Quote, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.getQuote(ctx, db.conn, tenantID, id)
}

func (db *DB) getQuote(ctx context.Context, q execer, tenantID, id string) (*models.Quote, error) {
	quote, err := db.scanQuote(q.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quote %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

// ListQuotes returns quotes newest first, optionally filtered by effective status.
func (db *DB) ListQuotes(ctx context.Context, tenantID, status string, page models.Page) ([]models.Quote, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where := `WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	now := db.now()
	switch status {
	case "":
	case models.QuoteExpired:
		where += ` AND (status = ? OR (status IN (?, ?) AND valid_until < ?))`
		args = append(args, models.QuoteExpired, models.QuoteDraft, models.QuoteSent, now)
	case models.QuoteDraft, models.QuoteSent:
		where += ` AND status = ? AND valid_until >= ?`
		args = append(args, status, now)
	default:
		where += ` AND status = ?`
		args = append(args, status)
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes `+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		q, err := db.scanQuote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating quotes: %w", err)
	}
	return quotes, total, nil
}

// quoteTransitions lists the effective statuses each action may start from.
var quoteTransitions = map[string][]string{
	models.QuoteSent:     {models.QuoteDraft},
	models.QuoteAccepted: {models.QuoteDraft, models.QuoteSent},
	models.QuoteRejected: {models.QuoteDraft, models.QuoteSent},
}

// TransitionQuote moves a quote to sent, accepted or rejected.
// Expired quotes cannot move anywhere.
func (db *DB) TransitionQuote(ctx context.Context, tenantID, id, to string) (*models.Quote, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var quote *models.Quote
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		q, err := db.getQuote(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		allowed := false
		for _, from := range quoteTransitions[to] {
			if q.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("quote %s is %s and cannot become %s: %w", id, q.Status, to, ErrInvalidTransition)
		}

		q.Status = to
		q.UpdatedAt = db.now()
		if _, err := tx.ExecContext(ctx, `UPDATE quotes SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			q.Status, q.UpdatedAt, tenantID, id); err != nil {
			return fmt.Errorf("failed to update quote: %w", err)
		}
		quote = q
		return nil
	})
	return quote, err
}

// ConvertQuote creates a draft load from an accepted quote and links it.
func (db *DB) ConvertQuote(ctx context.Context, tenantID, id string, req models.ConvertQuoteRequest) (*models.Load, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var load *models.Load
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		q, err := db.getQuote(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if q.Status != models.QuoteAccepted {
			return fmt.Errorf("quote %s is %s, only accepted quotes convert: %w", id, q.Status, ErrInvalidTransition)
		}
		if q.LoadID != nil {
			return fmt.Errorf("quote %s already converted to load %s: %w", id, *q.LoadID, ErrConflict)
		}

		quoteID := q.ID
		l := &models.Load{
			TenantID:      tenantID,
			CustomerName:  q.CustomerName,
			Origin:        q.Origin,
			Destination:   q.Destination,
			PickupAt:      req.PickupAt,
			DeliveryAt:    req.DeliveryAt,
			EquipmentType: q.EquipmentType,
			WeightLbs:     q.WeightLbs,
			Commodity:     req.Commodity,
			RateCents:     q.TotalCents,
		}
		db.prepareNewLoad(l)
		l.QuoteID = &quoteID
		if err := insertLoad(ctx, tx, l); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE quotes SET load_id = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			l.ID, db.now(), tenantID, id); err != nil {
			return fmt.Errorf("failed to link quote: %w", err)
		}
		load = l
		return nil
	})
	return load, err
}
