// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package logging provides centralized zerolog-based structured logging for Haulbase.
//
// The global logger is configured once from main via Init and used through
// package-level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("carrier_id", id).Msg("carrier verified")
//	logging.Ctx(r.Context()).Warn().Msg("bid rejected")
//
// Ctx adds correlation_id, request_id and tenant_id from the request context.
//
// Two adapters route third-party loggers into zerolog:
//   - SlogHandler / NewSlogLogger for the suture supervisor (via sutureslog)
//   - WatermillLogger for the domain event bus
//
// Always terminate log chains with .Msg() or .Send(), otherwise nothing is emitted.
package logging
