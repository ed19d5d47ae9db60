// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package websocket pushes live load board and tracking updates to browsers.

Each connection is bound to the tenant resolved when it was upgraded, and a
client only ever receives messages for that tenant. The hub subscribes to the
event bus (Subscribe) and forwards every domain event as a frame whose type
is the topic:

	{"type":"tracking.position","data":{"id":"...","entity_type":"load","entity_id":"...","payload":{...}}}

Clients may send {"type":"ping"} and receive {"type":"pong"}. The server
also sends websocket ping frames every 54 seconds and drops connections that
do not answer within 60 seconds.

Hub.Serve runs under the supervisor; when it stops, all clients are closed.
*/
package websocket
