// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package audit keeps the tenant-scoped audit trail of the TMS.
//
// Two sources feed the trail:
//
//   - Middleware records every mutating API call (POST, PUT, PATCH, DELETE)
//     made by an authenticated principal, with the route, status code and
//     the entity addressed by the URL.
//   - Subscribe registers a consumer on the event bus that records every
//     domain event. Event ids double as audit ids so redelivered events are
//     stored once.
//
// # Storage
//
// DuckDBStore persists events in the audit_events table on the main
// database connection. MemoryStore serves tests.
//
// # Services
//
// Logger buffers API records and writes them from its Serve loop; Cleanup
// deletes events older than the retention window on a fixed interval. Both
// implement suture.Service and run in the data layer of the supervisor
// tree.
//
// # Example
//
//	store := audit.NewDuckDBStore(db.Conn())
//	if err := store.CreateTable(ctx); err != nil {
//	    return err
//	}
//	logger := audit.NewLogger(store, 1000)
//	_ = logger.Subscribe(bus)
//	router.Use(logger.Middleware)
package audit
