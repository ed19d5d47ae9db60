// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package services adapts components that do not follow the suture.Service
shape.

Most Haulbase components (event bus, websocket hub, caches, blob GC, audit
writer and cleanup, login lockout janitor) already implement
Serve(ctx) error and String() and are added to the tree directly. The
wrappers here cover the rest:

  - HTTPServerService runs *http.Server and calls Shutdown with a bounded
    timeout when the tree stops.
  - TickerService runs a function periodically, e.g. the uptime gauge.

Example:

	server := &http.Server{Addr: ":8080", Handler: router}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddDataService(services.NewTickerService("uptime", 15*time.Second,
	    func(context.Context) { metrics.UpdateUptime(started) }))
*/
package services
