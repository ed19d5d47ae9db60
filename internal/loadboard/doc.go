// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package loadboard runs the load lifecycle: status transitions, bidding on
// posted loads and position pings. The database enforces the rules in a
// single transaction per operation; this package records metrics and
// publishes the resulting domain events (load.status_changed, bid.placed,
// bid.accepted, tracking.position).
package loadboard
