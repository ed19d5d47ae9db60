// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package fmcsa is a client for the FMCSA QCMobile carrier lookup API.
//
// Outbound calls wait on a rate.Limiter, run inside a gobreaker circuit
// breaker (opens at 60% failures over at least 10 requests, probes again
// after 60s) and are cached per DOT number for the configured TTL. A 404 or
// an empty carrier payload maps to ErrCarrierNotFound and does not count
// against the breaker.
package fmcsa
