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

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// BidAcceptance is everything that changed when a bid was accepted.
type BidAcceptance struct {
	Bid      *models.Bid
	Load     *models.Load
	Change   *models.LoadStatusChange
	Rejected int64
}

const bidColumns = `b.id, b.tenant_id, b.load_id, b.carrier_id, COALESCE(c.name, ''),
	b.amount_cents, COALESCE(b.notes, ''), b.status, b.created_at, b.updated_at`

const bidFrom = `FROM bids b LEFT JOIN carriers c ON c.id = b.carrier_id AND c.tenant_id = b.tenant_id`

func scanBid(row scanner) (*models.Bid, error) {
	b := &models.Bid{}
	err := row.Scan(&b.ID, &b.TenantID, &b.LoadID, &b.CarrierID, &b.CarrierName,
		&b.AmountCents, &b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func getBid(ctx context.Context, q execer, tenantID, id string) (*models.Bid, error) {
	b, err := scanBid(q.QueryRowContext(ctx,
		`SELECT `+bidColumns+` `+bidFrom+` WHERE b.tenant_id = ? AND b.id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bid %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return b, nil
}

// GetBid returns one bid of the tenant.
func (db *DB) GetBid(ctx context.Context, tenantID, id string) (*models.Bid, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getBid(ctx, db.conn, tenantID, id)
}

// PlaceBid records a carrier's offer on a posted load. A carrier holds at
// most one open bid per load; bidding again replaces the amount and notes.
// The returned flag reports whether an existing bid was replaced.
func (db *DB) PlaceBid(ctx context.Context, tenantID, loadID string, req models.BidRequest) (*models.Bid, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if req.AmountCents <= 0 {
		return nil, false, fmt.Errorf("bid amount must be positive: %w", ErrBidNotAllowed)
	}

	var (
		bid      *models.Bid
		replaced bool
	)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		load, err := getLoad(ctx, tx, tenantID, loadID)
		if err != nil {
			return err
		}
		if load.Status != models.LoadPosted {
			return fmt.Errorf("load %s is %s, bids need a posted load: %w", loadID, load.Status, ErrBidNotAllowed)
		}

		var carrierStatus string
		err = tx.QueryRowContext(ctx, `SELECT status FROM carriers WHERE tenant_id = ? AND id = ?`,
			tenantID, req.CarrierID).Scan(&carrierStatus)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("carrier %s is not registered with this brokerage: %w", req.CarrierID, ErrBidNotAllowed)
		}
		if err != nil {
			return fmt.Errorf("failed to get carrier: %w", err)
		}
		if carrierStatus != models.CarrierActive {
			return fmt.Errorf("carrier %s is %s: %w", req.CarrierID, carrierStatus, ErrBidNotAllowed)
		}

		now := db.now()
		var existingID string
		err = tx.QueryRowContext(ctx, `SELECT id FROM bids
			WHERE tenant_id = ? AND load_id = ? AND carrier_id = ? AND status = ?`,
			tenantID, loadID, req.CarrierID, models.BidOpen).Scan(&existingID)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `UPDATE bids SET amount_cents = ?, notes = ?, updated_at = ?
				WHERE tenant_id = ? AND id = ?`,
				req.AmountCents, nullString(req.Notes), now, tenantID, existingID); err != nil {
				return fmt.Errorf("failed to replace bid: %w", err)
			}
			replaced = true
		case errors.Is(err, sql.ErrNoRows):
			existingID = uuid.New().String()
			if _, err := tx.ExecContext(ctx, `INSERT INTO bids
				(id, tenant_id, load_id, carrier_id, amount_cents, notes, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				existingID, tenantID, loadID, req.CarrierID, req.AmountCents, nullString(req.Notes),
				models.BidOpen, now, now); err != nil {
				return fmt.Errorf("failed to insert bid: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up open bid: %w", err)
		}

		bid, err = getBid(ctx, tx, tenantID, existingID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return bid, replaced, nil
}

// ListBids returns the bids on a load, cheapest first.
func (db *DB) ListBids(ctx context.Context, tenantID, loadID string) ([]models.Bid, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := getLoad(ctx, db.conn, tenantID, loadID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT `+bidColumns+` `+bidFrom+`
		WHERE b.tenant_id = ? AND b.load_id = ?
		ORDER BY b.amount_cents ASC, b.created_at ASC, b.id`, tenantID, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

// AcceptBid awards a load to a bid in one transaction: the bid is accepted,
// every other open bid on the load is rejected, and the load is booked to
// the bidding carrier at the bid amount.
func (db *DB) AcceptBid(ctx context.Context, tenantID, bidID, actor string) (*BidAcceptance, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var out *BidAcceptance
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		bid, err := getBid(ctx, tx, tenantID, bidID)
		if err != nil {
			return err
		}
		if bid.Status != models.BidOpen {
			return fmt.Errorf("bid %s is %s: %w", bidID, bid.Status, ErrBidNotAllowed)
		}
		load, err := getLoad(ctx, tx, tenantID, bid.LoadID)
		if err != nil {
			return err
		}
		if load.Status != models.LoadPosted {
			return fmt.Errorf("load %s is %s: %w", load.ID, load.Status, ErrBidNotAllowed)
		}

		now := db.now()
		if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			models.BidAccepted, now, tenantID, bidID); err != nil {
			return fmt.Errorf("failed to accept bid: %w", err)
		}
		result, err := tx.ExecContext(ctx, `UPDATE bids SET status = ?, updated_at = ?
			WHERE tenant_id = ? AND load_id = ? AND status = ? AND id <> ?`,
			models.BidRejected, now, tenantID, load.ID, models.BidOpen, bidID)
		if err != nil {
			return fmt.Errorf("failed to reject competing bids: %w", err)
		}
		rejected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE loads SET carrier_id = ?, carrier_rate_cents = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?`,
			bid.CarrierID, bid.AmountCents, now, tenantID, load.ID); err != nil {
			return fmt.Errorf("failed to assign carrier: %w", err)
		}
		carrierID := bid.CarrierID
		load.CarrierID = &carrierID
		load.CarrierRateCents = bid.AmountCents

		change, err := db.transitionLoadTx(ctx, tx, load, models.LoadBooked, actor, "bid "+bidID+" accepted")
		if err != nil {
			return err
		}

		bid.Status = models.BidAccepted
		bid.UpdatedAt = now
		out = &BidAcceptance{Bid: bid, Load: load, Change: change, Rejected: rejected}
		return nil
	})
	return out, err
}

// WithdrawBid withdraws an open bid.
func (db *DB) WithdrawBid(ctx context.Context, tenantID, bidID string) (*models.Bid, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var bid *models.Bid
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBid(ctx, tx, tenantID, bidID)
		if err != nil {
			return err
		}
		if b.Status != models.BidOpen {
			return fmt.Errorf("bid %s is %s: %w", bidID, b.Status, ErrBidNotAllowed)
		}
		b.Status = models.BidWithdrawn
		b.UpdatedAt = db.now()
		if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			b.Status, b.UpdatedAt, tenantID, bidID); err != nil {
			return fmt.Errorf("failed to withdraw bid: %w", err)
		}
		bid = b
		return nil
	})
	return bid, err
}

// ListBoard returns posted loads with their open bid count and lowest open bid,
// earliest pickup first. Filter statuses are ignored.
func (db *DB) ListBoard(ctx context.Context, tenantID string, f LoadFilter, page models.Page) ([]models.BoardEntry, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	f.Statuses = []string{models.LoadPosted}
	where, whereArgs := buildLoadWhere("l", tenantID, f)

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM loads l `+where, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count board loads: %w", err)
	}

	args := append([]interface{}{tenantID, models.BidOpen}, whereArgs...)
	args = append(args, page.Limit, page.Offset)
	rows, err := db.conn.QueryContext(ctx, `SELECT `+prefixedLoadColumns("l")+`,
			COALESCE(agg.bid_count, 0), agg.lowest
		FROM loads l
		LEFT JOIN (
			SELECT load_id, COUNT(*) AS bid_count, MIN(amount_cents) AS lowest
			FROM bids WHERE tenant_id = ? AND status = ?
			GROUP BY load_id
		) agg ON agg.load_id = l.id
		`+where+`
		ORDER BY l.pickup_at ASC, l.id
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query load board: %w", err)
	}
	defer rows.Close()

	entries := []models.BoardEntry{}
	for rows.Next() {
		var e models.BoardEntry
		var n loadNulls
		var lowest sql.NullInt64
		targets := append(n.targets(&e.Load), &e.BidCount, &lowest)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan board entry: %w", err)
		}
		n.apply(&e.Load)
		if lowest.Valid {
			v := lowest.Int64
			e.LowestBidCents = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating load board: %w", err)
	}
	return entries, total, nil
}
