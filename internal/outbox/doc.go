// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package outbox parks domain events whose publish failed and retries them.

Load board and workflow changes are committed to DuckDB before their event
is published. When the bus rejects the publish (NATS unreachable, bus
closed during shutdown) the event would otherwise be lost, so the Outbox
wraps the bus as an events.Publisher and stores the failed event in
BadgerDB under pending:<event id>.

Serve runs the retry loop under the supervisor tree:

  - every Interval the pending entries are read in key order
  - an entry is retried once its backoff has elapsed (BaseBackoff doubled
    per attempt, capped at MaxBackoff)
  - a delivered entry is deleted
  - an entry is dropped and logged once it reaches MaxAttempts or is older
    than EntryTTL

Event IDs are stable across retries, so consumers that deduplicate by ID
(the audit log does) see each event at most once.

Metrics: events_outbox_pending and events_outbox_results_total{outcome}.
*/
package outbox
