// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/haulbase/internal/models"
)

const readyProbeTimeout = 2 * time.Second

// Health handles liveness probes. It never touches dependencies.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, models.HealthStatus{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Timestamp: time.Now().UTC(),
	})
}

// HealthReady reports whether the database answers and the event bus runs.
// The FMCSA breaker state and outbox backlog are informational: they degrade
// carrier verification and event delivery, not the service. A draining
// server is never ready.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if h.draining.Load() {
		respondData(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:    "draining",
			Version:   Version,
			Uptime:    time.Since(h.startTime).Seconds(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	if h.db == nil {
		checks["database"] = "unavailable"
		ready = false
	} else if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
		if table := h.db.EquipmentTable(); table != "" {
			checks["equipment_table"] = table
		} else {
			checks["equipment_table"] = "not resolved yet"
		}
	}

	if h.bus != nil {
		if h.bus.Healthy() {
			checks["events"] = "ok (" + h.bus.Transport() + ")"
		} else {
			checks["events"] = "not running (" + h.bus.Transport() + ")"
			ready = false
		}
	}

	if h.outbox != nil {
		if n, err := h.outbox.PendingCount(); err != nil {
			checks["event_outbox"] = "error: " + err.Error()
		} else {
			checks["event_outbox"] = strconv.Itoa(n) + " pending"
		}
	}

	if h.fmcsa != nil {
		if h.fmcsa.Enabled() {
			checks["fmcsa_breaker"] = h.fmcsa.BreakerState()
		} else {
			checks["fmcsa_breaker"] = "disabled"
		}
	}

	if h.wsHub != nil {
		checks["websocket_clients"] = strconv.Itoa(h.wsHub.ClientCount())
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondData(w, code, models.HealthStatus{
		Status:    status,
		Version:   Version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// PerformanceStats returns per-endpoint latency percentiles and the most
// recent requests.
//
// @Summary Request performance statistics
// @Tags Admin
// @Produce json
// @Param recent query int false "Number of recent samples" default(20)
// @Success 200 {object} models.APIResponse
// @Security BearerAuth
// @Router /admin/performance [get]
func (h *Handler) PerformanceStats(w http.ResponseWriter, r *http.Request) {
	recent := getIntParam(r, "recent", 20)
	if recent < 0 || recent > 1000 {
		recent = 20
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"endpoints":   h.perfMon.Stats(),
		"recent":      h.perfMon.Recent(recent),
		"cache_stats": h.cache.GetStats(),
	})
}
