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

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// CarrierFilter narrows a carrier listing. Empty fields do not filter.
type CarrierFilter struct {
	Status string
	// Query matches a substring of name, MC number or DOT number.
	Query string
}

const carrierColumns = `id, tenant_id, name, mc_number, dot_number, status,
	contact_name, phone, email, equipment_types, insurance_expires_at,
	safety_rating, authority_status, last_verified_at, created_at, updated_at`

func scanCarrier(row scanner) (*models.Carrier, error) {
	c := &models.Carrier{}
	var mc, dot, contact, phone, email, safety, authority, equipment sql.NullString
	var insurance, verified sql.NullTime

	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &mc, &dot, &c.Status,
		&contact, &phone, &email, &equipment, &insurance,
		&safety, &authority, &verified, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.MCNumber, c.DOTNumber = mc.String, dot.String
	c.ContactName, c.Phone, c.Email = contact.String, phone.String, email.String
	c.SafetyRating, c.AuthorityStatus = safety.String, authority.String
	c.InsuranceExpiresAt = timePtr(insurance)
	c.LastVerifiedAt = timePtr(verified)
	if c.EquipmentTypes, err = unmarshalStrings(equipment); err != nil {
		return nil, err
	}
	return c, nil
}

// ensureUniqueDOT rejects a DOT number already used by another carrier of the tenant.
func ensureUniqueDOT(ctx context.Context, q execer, tenantID, dot, exceptID string) error {
	if dot == "" {
		return nil
	}
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM carriers WHERE tenant_id = ? AND dot_number = ? AND id <> ?`,
		tenantID, dot, exceptID).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check dot number: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("dot number %s already registered: %w", dot, ErrConflict)
	}
	return nil
}

// CreateCarrier inserts a carrier. Status defaults to pending.
func (db *DB) CreateCarrier(ctx context.Context, c *models.Carrier) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.CarrierPending
	}
	if c.EquipmentTypes == nil {
		c.EquipmentTypes = []string{}
	}
	now := db.now()
	c.CreatedAt, c.UpdatedAt = now, now

	equipment, err := marshalStrings(c.EquipmentTypes)
	if err != nil {
		return err
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUniqueDOT(ctx, tx, c.TenantID, c.DOTNumber, c.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO carriers (`+carrierColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.TenantID, c.Name, nullString(c.MCNumber), nullString(c.DOTNumber), c.Status,
			nullString(c.ContactName), nullString(c.Phone), nullString(c.Email), equipment,
			nullTime(c.InsuranceExpiresAt), nullString(c.SafetyRating), nullString(c.AuthorityStatus),
			nullTime(c.LastVerifiedAt), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert carrier: %w", err)
		}
		return nil
	})
}

// GetCarrier returns one carrier of the tenant.
func (db *DB) GetCarrier(ctx context.Context, tenantID, id string) (*models.Carrier, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	c, err := scanCarrier(db.conn.QueryRowContext(ctx,
		`SELECT `+carrierColumns+` FROM carriers WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("carrier %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get carrier: %w", err)
	}
	return c, nil
}

// ListCarriers returns carriers matching the filter ordered by name.
func (db *DB) ListCarriers(ctx context.Context, tenantID string, f CarrierFilter, page models.Page) ([]models.Carrier, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where := `WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where += ` AND (name ILIKE ? OR mc_number ILIKE ? OR dot_number ILIKE ?)`
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM carriers `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count carriers: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+carrierColumns+` FROM carriers `+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query carriers: %w", err)
	}
	defer rows.Close()

	carriers := []models.Carrier{}
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating carriers: %w", err)
	}
	return carriers, total, nil
}

// UpdateCarrier overwrites the editable fields of a carrier.
func (db *DB) UpdateCarrier(ctx context.Context, c *models.Carrier) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	equipment, err := marshalStrings(c.EquipmentTypes)
	if err != nil {
		return err
	}
	c.UpdatedAt = db.now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUniqueDOT(ctx, tx, c.TenantID, c.DOTNumber, c.ID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `UPDATE carriers SET
				name = ?, mc_number = ?, dot_number = ?, status = ?,
				contact_name = ?, phone = ?, email = ?, equipment_types = ?,
				insurance_expires_at = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?`,
			c.Name, nullString(c.MCNumber), nullString(c.DOTNumber), c.Status,
			nullString(c.ContactName), nullString(c.Phone), nullString(c.Email), equipment,
			nullTime(c.InsuranceExpiresAt), c.UpdatedAt, c.TenantID, c.ID)
		if err != nil {
			return fmt.Errorf("failed to update carrier: %w", err)
		}
		return requireOneRow(result, "carrier "+c.ID)
	})
}

// ApplyCarrierVerification stores an FMCSA lookup result. A carrier whose
// authority is not active is blocked.
func (db *DB) ApplyCarrierVerification(ctx context.Context, tenantID, id string, v models.CarrierVerification) (*models.Carrier, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	statusExpr := `status`
	args := []interface{}{v.AuthorityStatus, nullString(v.SafetyRating), v.VerifiedAt.UTC(), db.now()}
	if v.Block {
		statusExpr = `?`
		args = append([]interface{}{models.CarrierBlocked}, args...)
	}
	args = append(args, tenantID, id)

	result, err := db.conn.ExecContext(ctx, `UPDATE carriers SET
			status = `+statusExpr+`, authority_status = ?, safety_rating = ?,
			last_verified_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}
	if err := requireOneRow(result, "carrier "+id); err != nil {
		return nil, err
	}
	return db.GetCarrier(ctx, tenantID, id)
}

// DeleteCarrier removes a carrier that is not assigned to an active load.
func (db *DB) DeleteCarrier(ctx context.Context, tenantID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var active int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM loads
			WHERE tenant_id = ? AND carrier_id = ? AND status IN ('booked', 'in_transit')`,
			tenantID, id).Scan(&active)
		if err != nil {
			return fmt.Errorf("failed to check carrier loads: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("carrier %s has %d active loads: %w", id, active, ErrConflict)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM carriers WHERE tenant_id = ? AND id = ?`, tenantID, id)
		if err != nil {
			return fmt.Errorf("failed to delete carrier: %w", err)
		}
		return requireOneRow(result, "carrier "+id)
	})
}
