// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/haulbase/internal/models"
)

// topN is the length of the lane and carrier rankings.
const topN = 5

// maxSeriesDays bounds the loads-by-day series.
const maxSeriesDays = 366

// Dashboard aggregates the tenant's activity in [from, to). Load counts and
// lanes use creation time; financials, on-time rate and carrier rankings use
// delivery time.
func (db *DB) Dashboard(ctx context.Context, tenantID string, from, to time.Time) (*models.Dashboard, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	from, to = from.UTC(), to.UTC()
	d := &models.Dashboard{
		From:          from,
		To:            to,
		LoadsByStatus: map[string]int64{},
		TopLanes:      []models.LaneStat{},
		TopCarriers:   []models.CarrierStat{},
	}

	steps := []func(context.Context, string, time.Time, time.Time, *models.Dashboard) error{
		db.dashboardStatusCounts,
		db.dashboardFinancials,
		db.dashboardLanes,
		db.dashboardCarriers,
		db.dashboardBids,
	}
	for _, step := range steps {
		if err := step(ctx, tenantID, from, to, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (db *DB) dashboardStatusCounts(ctx context.Context, tenantID string, from, to time.Time, d *models.Dashboard) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM loads
		WHERE tenant_id = ? AND created_at >= ? AND created_at < ?
		GROUP BY status`, tenantID, from, to)
	if err != nil {
		return fmt.Errorf("failed to count loads by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return fmt.Errorf("failed to scan status count: %w", err)
		}
		d.LoadsByStatus[status] = n
	}
	return rows.Err()
}

func (db *DB) dashboardFinancials(ctx context.Context, tenantID string, from, to time.Time, d *models.Dashboard) error {
	var onTime int64
	err := db.conn.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(rate_cents), 0),
			COALESCE(SUM(carrier_rate_cents), 0),
			COUNT(*) FILTER (WHERE delivered_at <= delivery_at)
		FROM loads
		WHERE tenant_id = ? AND status = ? AND delivered_at >= ? AND delivered_at < ?`,
		tenantID, models.LoadDelivered, from, to).
		Scan(&d.DeliveredLoads, &d.RevenueCents, &d.CarrierCostCents, &onTime)
	if err != nil {
		return fmt.Errorf("failed to aggregate financials: %w", err)
	}

	d.MarginCents = d.RevenueCents - d.CarrierCostCents
	if d.RevenueCents > 0 {
		d.MarginPercent = round2(float64(d.MarginCents) / float64(d.RevenueCents) * 100)
	}
	if d.DeliveredLoads > 0 {
		d.OnTimePercent = round2(float64(onTime) / float64(d.DeliveredLoads) * 100)
	}
	d.RevenueDisplay = FormatCents(d.RevenueCents)
	return nil
}

func (db *DB) dashboardLanes(ctx context.Context, tenantID string, from, to time.Time, d *models.Dashboard) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT origin_state, destination_state, COUNT(*) AS n, COALESCE(SUM(rate_cents), 0)
		FROM loads
		WHERE tenant_id = ? AND created_at >= ? AND created_at < ? AND status <> ?
		GROUP BY origin_state, destination_state
		ORDER BY n DESC, origin_state, destination_state
		LIMIT ?`, tenantID, from, to, models.LoadCancelled, topN)
	if err != nil {
		return fmt.Errorf("failed to rank lanes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.LaneStat
		if err := rows.Scan(&l.OriginState, &l.DestinationState, &l.Loads, &l.RevenueCents); err != nil {
			return fmt.Errorf("failed to scan lane: %w", err)
		}
		d.TopLanes = append(d.TopLanes, l)
	}
	return rows.Err()
}

func (db *DB) dashboardCarriers(ctx context.Context, tenantID string, from, to time.Time, d *models.Dashboard) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT l.carrier_id, COALESCE(MAX(c.name), ''), COUNT(*) AS n
		FROM loads l
		LEFT JOIN carriers c ON c.id = l.carrier_id AND c.tenant_id = l.tenant_id
		WHERE l.tenant_id = ? AND l.status = ? AND l.carrier_id IS NOT NULL
			AND l.delivered_at >= ? AND l.delivered_at < ?
		GROUP BY l.carrier_id
		ORDER BY n DESC, l.carrier_id
		LIMIT ?`, tenantID, models.LoadDelivered, from, to, topN)
	if err != nil {
		return fmt.Errorf("failed to rank carriers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.CarrierStat
		if err := rows.Scan(&c.CarrierID, &c.CarrierName, &c.DeliveredLoads); err != nil {
			return fmt.Errorf("failed to scan carrier ranking: %w", err)
		}
		d.TopCarriers = append(d.TopCarriers, c)
	}
	return rows.Err()
}

func (db *DB) dashboardBids(ctx context.Context, tenantID string, from, to time.Time, d *models.Dashboard) error {
	var posted int64
	err := db.conn.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM bids WHERE tenant_id = ? AND created_at >= ? AND created_at < ?),
			(SELECT COUNT(DISTINCT load_id) FROM load_status_history
				WHERE tenant_id = ? AND to_status = ? AND changed_at >= ? AND changed_at < ?)`,
		tenantID, from, to, tenantID, models.LoadPosted, from, to).Scan(&d.TotalBids, &posted)
	if err != nil {
		return fmt.Errorf("failed to aggregate bids: %w", err)
	}
	if posted > 0 {
		d.AvgBidsPerPosting = round2(float64(d.TotalBids) / float64(posted))
	}
	return nil
}

// LoadsByDay returns one entry per UTC day in [from, to), including empty days.
func (db *DB) LoadsByDay(ctx context.Context, tenantID string, from, to time.Time) ([]models.DailyCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := truncateDay(from.UTC())
	end := to.UTC()
	if !end.After(start) {
		return []models.DailyCount{}, nil
	}
	if end.Sub(start) > maxSeriesDays*24*time.Hour {
		return nil, fmt.Errorf("range exceeds %d days", maxSeriesDays)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT strftime(created_at, '%Y-%m-%d') AS day, COUNT(*)
		FROM loads
		WHERE tenant_id = ? AND created_at >= ? AND created_at < ?
		GROUP BY day`, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads by day: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily counts: %w", err)
	}

	series := []models.DailyCount{}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, models.DailyCount{Day: key, Loads: counts[key]})
	}
	return series, nil
}

// FormatCents renders an amount of cents as dollars, e.g. 123456789 -> "$1,234,567.89".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + humanize.Comma(cents/100) + fmt.Sprintf(".%02d", cents%100)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
