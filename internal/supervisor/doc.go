// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package supervisor runs Haulbase's long-lived services under suture v4.

The tree has three layers so a failure in one does not take down the
others:

	haulbase
	├── data-layer
	│   ├── document-blob-gc
	│   ├── analytics cache janitor
	│   ├── fmcsa cache janitor
	│   ├── login-lockout janitor
	│   ├── audit-writer
	│   ├── audit-cleanup
	│   └── uptime
	├── messaging-layer
	│   ├── event-bus
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Supervisor events (service failures, restarts, backoff) are logged through
sutureslog over the zerolog-backed slog handler.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(bus)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor stopped")
	}

See the services subpackage for wrappers around components that are not
suture services themselves.
*/
package supervisor
