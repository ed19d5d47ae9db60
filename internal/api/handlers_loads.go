// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/models"
)

// parseLoadFilter reads the shared load filters. Unknown statuses are
// rejected rather than silently matching nothing.
func parseLoadFilter(r *http.Request) (database.LoadFilter, error) {
	q := r.URL.Query()
	f := database.LoadFilter{
		Statuses:         parseCommaSeparated(r, "status"),
		CarrierID:        q.Get("carrier_id"),
		EquipmentType:    q.Get("equipment_type"),
		OriginState:      q.Get("origin_state"),
		DestinationState: q.Get("destination_state"),
	}
	if f.EquipmentType == "" {
		f.EquipmentType = q.Get("equipment")
	}
	for _, s := range f.Statuses {
		if !models.IsValidLoadStatus(s) {
			return f, fmt.Errorf("unknown load status %q", s)
		}
	}

	var err error
	if f.PickupFrom, err = getTimeParam(r, "pickup_from"); err != nil {
		return f, err
	}
	if f.PickupTo, err = getTimeParam(r, "pickup_to"); err != nil {
		return f, err
	}
	if f.PickupFrom != nil && f.PickupTo != nil && f.PickupTo.Before(*f.PickupFrom) {
		return f, fmt.Errorf("pickup_to must not be before pickup_from")
	}
	return f, nil
}

func respondBadQuery(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}

func loadFromRequest(tenant string, req *models.LoadRequest) *models.Load {
	return &models.Load{
		TenantID:      tenant,
		Reference:     req.Reference,
		CustomerName:  req.CustomerName,
		Origin:        req.Origin,
		Destination:   req.Destination,
		PickupAt:      req.PickupAt,
		DeliveryAt:    req.DeliveryAt,
		EquipmentType: req.EquipmentType,
		WeightLbs:     req.WeightLbs,
		Commodity:     req.Commodity,
		RateCents:     req.RateCents,
	}
}

// ListLoads lists loads with optional filters.
//
// @Summary List loads
// @Tags Loads
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param carrier_id query string false "Carrier ID"
// @Param equipment_type query string false "Equipment code"
// @Param origin_state query string false "Origin state"
// @Param destination_state query string false "Destination state"
// @Param pickup_from query string false "Earliest pickup (RFC 3339 or YYYY-MM-DD)"
// @Param pickup_to query string false "Latest pickup (RFC 3339 or YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.Load}
// @Security BearerAuth
// @Router /loads [get]
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	filter, err := parseLoadFilter(r)
	if err != nil {
		respondBadQuery(w, err)
		return
	}
	page := h.page(r)
	loads, total, err := h.db.ListLoads(r.Context(), tenant, filter, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, loads, page, total)
}

// CreateLoad adds a draft load. An empty reference is generated.
//
// @Summary Create load
// @Tags Loads
// @Accept json
// @Produce json
// @Param body body models.LoadRequest true "Load"
// @Success 201 {object} models.APIResponse{data=models.Load}
// @Security BearerAuth
// @Router /loads [post]
func (h *Handler) CreateLoad(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.LoadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	load := loadFromRequest(tenant, &req)
	if err := h.db.CreateLoad(r.Context(), load); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusCreated, load)
}

// GetLoad returns one load.
//
// @Summary Get load
// @Tags Loads
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} models.APIResponse{data=models.Load}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id} [get]
func (h *Handler) GetLoad(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	load, err := h.db.GetLoad(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, load)
}

// UpdateLoad replaces the shipment details of a draft or posted load.
//
// @Summary Update load
// @Tags Loads
// @Accept json
// @Produce json
// @Param id path string true "Load ID"
// @Param body body models.LoadRequest true "Load"
// @Success 200 {object} models.APIResponse{data=models.Load}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id} [put]
func (h *Handler) UpdateLoad(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.LoadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	load := loadFromRequest(tenant, &req)
	load.ID = chi.URLParam(r, "id")
	if err := h.db.UpdateLoad(r.Context(), load); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusOK, load)
}

// DeleteLoad removes a draft load.
//
// @Summary Delete load
// @Tags Loads
// @Param id path string true "Load ID"
// @Success 204
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id} [delete]
func (h *Handler) DeleteLoad(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteLoad(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	w.WriteHeader(http.StatusNoContent)
}

// TransitionLoad moves a load through its status machine.
//
// @Summary Change load status
// @Tags Loads
// @Accept json
// @Produce json
// @Param id path string true "Load ID"
// @Param body body models.StatusChangeRequest true "Target status"
// @Success 200 {object} models.APIResponse{data=models.Load}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id}/status [post]
func (h *Handler) TransitionLoad(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.StatusChangeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	load, err := h.board.TransitionLoad(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req.Status, req.Note)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusOK, load)
}

// LoadHistory lists a load's status changes, oldest first.
//
// @Summary Load status history
// @Tags Loads
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} models.APIResponse{data=[]models.LoadStatusChange}
// @Security BearerAuth
// @Router /loads/{id}/history [get]
func (h *Handler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	history, err := h.db.LoadHistory(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, history)
}
