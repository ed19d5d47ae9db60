// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package api provides the HTTP surface of Haulbase.

Routing uses chi. Every endpoint lives under /api/v1 and answers with the
models.APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "...", "pagination": {...}}
	}

Errors use the same envelope with status "error" and an error object whose
code is stable (NOT_FOUND, CONFLICT, INVALID_TRANSITION, BID_NOT_ALLOWED,
EQUIPMENT_UNAVAILABLE, VALIDATION_ERROR, ...).

# Middleware

Global, in order:

  - RequestID: assigns X-Request-ID and a correlation id
  - chi RealIP and Recoverer
  - CORS (go-chi/cors)
  - PrometheusMetrics and AccessLog
  - PerformanceMonitor

Per route group:

  - httprate limit (auth routes are stricter)
  - security headers and gzip for JSON (the websocket route is not compressed)
  - Authenticate (JWT, basic or none)
  - audit middleware for mutations
  - Authorize(resource, action) backed by casbin

/api/v1/admin/performance is admin-only, /metrics serves Prometheus and
/swagger/ serves the generated API docs.

# Files

Handlers are split by resource: handlers_carriers.go, handlers_loads.go,
handlers_quotes.go, handlers_loadboard.go, handlers_equipment.go,
handlers_workflows.go, handlers_documents.go, handlers_tracking.go,
handlers_permissions.go, handlers_analytics.go, handlers_integrations.go,
handlers_audit.go, handlers_auth.go, handlers_websocket.go and
handlers_health.go. Shared helpers are in handlers_helpers.go and the error
mapping is in errors.go.
*/
package api
