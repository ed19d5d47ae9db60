// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

//go:generate swag init -d ../../ -g cmd/server/docs.go -o ../../docs --parseInternal

// @title Haulbase API
// @version 1.0
// @description Freight transportation management for brokerages: carrier vetting,
// @description load lifecycle, load board bidding, quotes, live tracking, documents
// @description and configurable workflows.
// @description
// @description ## Tenancy
// @description
// @description Every record belongs to a tenant. With JWT auth the tenant comes from
// @description the token; admins may act on another tenant with the X-Tenant-ID header.
// @description
// @description ## Rate Limiting
// @description
// @description Default limit: 100 requests per minute per IP. Login allows 5 attempts
// @description per 5 minutes. Throttled requests get 429 RATE_LIMITED with Retry-After.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "INVALID_TRANSITION", "message": "...", "details": {}},
// @description   "metadata": {"timestamp": "2026-03-02T15:04:05Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/haulbase/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT from POST /api/v1/auth/login, sent as "Bearer <token>".
//
// @tag.name Health
// @tag.description Liveness and readiness probes
//
// @tag.name Auth
// @tag.description Login, current principal and user management
//
// @tag.name Carriers
// @tag.description Carrier records and FMCSA verification
//
// @tag.name Loads
// @tag.description Load lifecycle and status history
//
// @tag.name LoadBoard
// @tag.description Posted loads, bids and bid acceptance
//
// @tag.name Quotes
// @tag.description Rate quotes and conversion to loads
//
// @tag.name Equipment
// @tag.description Trailer and truck equipment catalogue
//
// @tag.name Workflows
// @tag.description Workflow definitions and executions
//
// @tag.name Documents
// @tag.description Folders, uploads and downloads
//
// @tag.name Tracking
// @tag.description Position pings and the live map
//
// @tag.name Analytics
// @tag.description Dashboard aggregates
//
// @tag.name Integrations
// @tag.description External system settings and connectivity checks
//
// @tag.name Admin
// @tag.description Roles, permissions and the audit trail
package main
