// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package metrics

import (
	"errors"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"group"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by resource, action and result",
		},
		[]string{"resource", "action", "result"},
	)

	// Cache

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries currently cached",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of expired or evicted cache entries",
		},
		[]string{"cache"},
	)

	// WebSocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Number of connected websocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Messages pushed to websocket clients",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Messages received from websocket clients",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Websocket errors by type",
		},
		[]string{"type"},
	)

	// Circuit breaker

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests passing through a circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Events

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published by topic",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Domain events processed by handler and result",
		},
		[]string{"handler", "result"},
	)

	EventHandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_handler_duration_seconds",
			Help:    "Time spent in event handlers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "events_outbox_pending",
			Help: "Events waiting in the outbox for a retried publish",
		},
	)

	OutboxResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_outbox_results_total",
			Help: "Outbox entries by outcome (stored, delivered, retry, dropped)",
		},
		[]string{"outcome"},
	)

	// Domain

	LoadTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_status_transitions_total",
			Help: "Load status transitions",
		},
		[]string{"from", "to"},
	)

	BidsPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_placed_total",
			Help: "Bids placed on the load board",
		},
	)

	BidsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_accepted_total",
			Help: "Bids accepted",
		},
	)

	TrackingPings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_pings_total",
			Help: "Position pings ingested by source",
		},
		[]string{"source"},
	)

	WorkflowExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_executions_total",
			Help: "Workflow executions by terminal or waiting status",
		},
		[]string{"status"},
	)

	DocumentBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "document_bytes_stored_total",
			Help: "Bytes of document content written to the blob store",
		},
	)

	FMCSALookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmcsa_lookups_total",
			Help: "FMCSA carrier lookups by result",
		},
		[]string{"result"},
	)

	FMCSALookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fmcsa_lookup_duration_seconds",
			Help:    "Latency of upstream FMCSA calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	AuditEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_recorded_total",
			Help: "Audit events written by source",
		},
		[]string{"source"},
	)

	AuditEventsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_pruned_total",
			Help: "Audit events removed by retention cleanup",
		},
	)

	// System

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// maxErrorLabel bounds the cardinality of error_type labels.
const maxErrorLabel = 50

// RecordDBQuery records a store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorLabel(err)).Inc()
	}
}

// errorLabel uses the innermost wrapped error so the label names the cause.
func errorLabel(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	msg := err.Error()
	if len(msg) > maxErrorLabel {
		msg = msg[:maxErrorLabel]
	}
	return msg
}

// RecordAPIRequest records one finished HTTP request. endpoint should be the
// route pattern, not the raw path.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuthz records an authorization decision.
func RecordAuthz(resource, action string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(resource, action, result).Inc()
}

// RecordEventHandled records one handler invocation.
func RecordEventHandled(handler string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsHandled.WithLabelValues(handler, result).Inc()
	EventHandlerDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition updates the state gauge and transition counter.
// States follow gobreaker: closed=0, half-open=1, open=2.
func RecordCircuitBreakerTransition(name, from, to string, toValue int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(toValue))
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime sets app_uptime_seconds from the process start time.
func UpdateUptime(started time.Time) {
	AppUptime.Set(time.Since(started).Seconds())
}
