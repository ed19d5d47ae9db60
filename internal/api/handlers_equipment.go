// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListEquipment lists equipment types from the first configured table that
// exists.
//
// @Summary List equipment types
// @Tags Equipment
// @Produce json
// @Param category query string false "Category"
// @Success 200 {object} models.APIResponse{data=[]models.EquipmentType}
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /equipment [get]
func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	types, err := h.db.ListEquipment(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, types)
}

// GetEquipment returns one equipment type by code.
//
// @Summary Get equipment type
// @Tags Equipment
// @Produce json
// @Param code path string true "Equipment code"
// @Success 200 {object} models.APIResponse{data=models.EquipmentType}
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /equipment/{code} [get]
func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	eq, err := h.db.GetEquipment(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, eq)
}

// EquipmentLoads lists the tenant's loads that need an equipment type.
//
// @Summary Loads for an equipment type
// @Tags Equipment
// @Produce json
// @Param code path string true "Equipment code"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.Load}
// @Security BearerAuth
// @Router /equipment/{code}/loads [get]
func (h *Handler) EquipmentLoads(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	page := h.page(r)
	loads, total, err := h.db.LoadsForEquipment(r.Context(), tenant, chi.URLParam(r, "code"), page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, loads, page, total)
}
