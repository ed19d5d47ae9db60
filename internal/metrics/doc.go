// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package metrics defines the Prometheus collectors Haulbase exports on /metrics.

Collectors are registered with the default registry through promauto when the
package is loaded, so importing it is enough; promhttp.Handler() serves them.

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{group}
  - authz_decisions_total{resource,action,result}

Store:
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table,error_type}

Cache and realtime:
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total {cache}
  - websocket_connections, websocket_messages_sent_total{type},
    websocket_messages_received_total, websocket_errors_total{type}

Integrations and events:
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from,to}
  - fmcsa_lookups_total{result}, fmcsa_lookup_duration_seconds
  - events_published_total{topic}
  - events_handled_total{handler,result}, event_handler_duration_seconds{handler}

Domain:
  - load_status_transitions_total{from,to}
  - bids_placed_total, bids_accepted_total
  - tracking_pings_total{source}
  - workflow_executions_total{status}
  - document_bytes_stored_total
  - audit_events_recorded_total{source}, audit_events_pruned_total

The endpoint label of the HTTP metrics is the chi route pattern
(/api/v1/loads/{id}), never the raw path, to keep cardinality bounded.
*/
package metrics
