// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/tomtom215/haulbase/internal/logging"
)

// WebSocket upgrades the connection and subscribes it to the caller's
// tenant. Clients receive load, bid, tracking and workflow events as they
// are published.
//
// @Summary Live event stream
// @Tags Realtime
// @Success 101
// @Security BearerAuth
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.wsHub.Upgrade(w, r, h.getUpgrader(), tenant, actorOf(r)); err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
	}
}
