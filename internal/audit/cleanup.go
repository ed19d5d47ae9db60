// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"time"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

// Cleanup periodically deletes events older than the retention window.
type Cleanup struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewCleanup creates the retention service. Non-positive values fall back
// to 90 days and 24 hours.
func NewCleanup(store Store, retentionDays int, interval time.Duration) *Cleanup {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Cleanup{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       time.Now,
	}
}

// RunOnce deletes expired events and returns how many were removed.
func (c *Cleanup) RunOnce(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.retention)
	n, err := c.store.Delete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AuditEventsPruned.Add(float64(n))
		logging.Info().Int64("deleted", n).Time("older_than", cutoff).Msg("pruned audit events")
	}
	return n, nil
}

// Serve runs RunOnce at startup and then on every interval.
func (c *Cleanup) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("audit cleanup failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Cleanup) String() string { return "audit-cleanup" }
