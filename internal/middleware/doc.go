// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package middleware provides the infrastructure middleware shared by every
API route.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids.
  - AccessLog: one zerolog line per request, levelled by status.
  - PrometheusMetrics: request totals, latency histogram and in-flight
    gauge labelled by chi route pattern.
  - PerformanceMonitor: a sliding window of recent samples with
    per-endpoint percentiles, served on the admin performance endpoint.

All middleware use the func(http.HandlerFunc) http.HandlerFunc shape and are
adapted to chi by the api package. Response writers are wrapped with chi's
WrapResponseWriter so websocket upgrades can still hijack the connection.
*/
package middleware
