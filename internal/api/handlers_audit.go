// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/audit"
	"github.com/tomtom215/haulbase/internal/models"
)

// ListAuditEvents lists the tenant's audit trail, newest first.
//
// @Summary List audit events
// @Tags Audit
// @Produce json
// @Param entity_type query string false "Entity type"
// @Param entity_id query string false "Entity ID"
// @Param actor query string false "Actor"
// @Param type query string false "Comma-separated event types"
// @Param since query string false "Only events at or after this time"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]audit.Event}
// @Security BearerAuth
// @Router /audit [get]
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	since, err := getTimeParam(r, "since")
	if err != nil {
		respondBadQuery(w, err)
		return
	}
	q := r.URL.Query()
	page := h.page(r)
	filter := audit.QueryFilter{
		TenantID:   tenant,
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Actor:      q.Get("actor"),
		Types:      parseCommaSeparated(r, "type"),
		Since:      since,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	events, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, events, page, total)
}

// GetAuditEvent returns one audit event.
//
// @Summary Get audit event
// @Tags Audit
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.APIResponse{data=audit.Event}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/{id} [get]
func (h *Handler) GetAuditEvent(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	event, err := h.audit.Store().Get(r.Context(), tenant, chi.URLParam(r, "id"))
	if errors.Is(err, audit.ErrNotFound) {
		respondErrorDetails(w, http.StatusNotFound, &models.APIError{Code: "NOT_FOUND", Message: "audit event not found"}, nil)
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, event)
}

// AuditStats summarizes the tenant's audit trail.
//
// @Summary Audit statistics
// @Tags Audit
// @Produce json
// @Success 200 {object} models.APIResponse{data=audit.Stats}
// @Security BearerAuth
// @Router /audit/stats [get]
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	stats, err := h.audit.Stats(r.Context(), tenant)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
