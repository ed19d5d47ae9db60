// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package main is the entry point for the Haulbase server.

Haulbase is a multi-tenant API for freight brokerages: carrier vetting
against FMCSA, the load lifecycle from draft to delivery, a load board with
carrier bids, rate quotes, live tracking, documents and configurable
workflows.

# Application Architecture

Long-running components run under a Suture v4 tree:

	RootSupervisor ("haulbase")
	├── DataSupervisor ("data-layer")
	│   ├── audit writer and retention cleanup
	│   ├── document blob GC (BadgerDB value log)
	│   ├── analytics cache janitor
	│   ├── login lockout janitor
	│   └── uptime gauge
	├── MessagingSupervisor ("messaging-layer")
	│   ├── event bus (Watermill, in-process or NATS JetStream)
	│   ├── event outbox retry loop (BadgerDB)
	│   └── WebSocket hub
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi)

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Storage: DuckDB, the audit table and the document blob store
 4. Events: the bus, the outbox in front of it, and the subscribers
    (websocket, audit, workflow triggers)
 5. Security: casbin roles, JWT, OIDC or Basic auth, login lockout
 6. HTTP: handlers, middleware and routes
 7. Supervisor tree

# Configuration

Priority: environment variables > config file > defaults.

	HTTP_PORT=8420
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	DUCKDB_PATH=/data/haulbase.duckdb
	DOCUMENTS_BLOB_PATH=/data/documents
	SEED_MOCK_DATA=false

	AUTH_MODE=jwt                # jwt, oidc, basic or none
	JWT_SECRET=<32+ chars>       # also keys integration settings encryption
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>
	DEFAULT_TENANT=default

	EVENTS_TRANSPORT=memory      # memory or nats
	NATS_URL=nats://127.0.0.1:4222
	NATS_EMBEDDED=false
	OUTBOX_PATH=/data/outbox     # failed publishes wait here for retry

	FMCSA_ENABLED=false
	FMCSA_WEB_KEY=<key>

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to 10 seconds, the bus stops its router, and the blob store and database
are closed on the way out.

# Usage Examples

Development:

	AUTH_MODE=none SEED_MOCK_DATA=true DUCKDB_PATH=./haulbase.duckdb \
	DOCUMENTS_BLOB_PATH=./documents go run ./cmd/server

Production with an external NATS cluster:

	export AUTH_MODE=jwt JWT_SECRET=$(openssl rand -base64 48)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=a-long-passphrase
	export EVENTS_TRANSPORT=nats NATS_URL=nats://nats:4222
	./haulbase

# API Documentation

Swagger UI is served at /swagger/index.html and Prometheus metrics at
/metrics.
*/
package main
