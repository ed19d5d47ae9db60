// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

func applyCarrierRequest(c *models.Carrier, req *models.CarrierRequest) {
	c.Name = strings.TrimSpace(req.Name)
	c.MCNumber = strings.TrimSpace(req.MCNumber)
	c.DOTNumber = strings.TrimSpace(req.DOTNumber)
	if req.Status != "" {
		c.Status = req.Status
	}
	c.ContactName = req.ContactName
	c.Phone = req.Phone
	c.Email = req.Email
	c.EquipmentTypes = req.EquipmentTypes
	if c.EquipmentTypes == nil {
		c.EquipmentTypes = []string{}
	}
	c.InsuranceExpiresAt = req.InsuranceExpiresAt
}

// ListCarriers lists the tenant's carriers.
//
// @Summary List carriers
// @Tags Carriers
// @Produce json
// @Param status query string false "Status filter" Enums(active, inactive, pending, blocked)
// @Param q query string false "Substring of name, MC or DOT number"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.Carrier}
// @Security BearerAuth
// @Router /carriers [get]
func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := database.CarrierFilter{
		Status: q.Get("status"),
		Query:  strings.TrimSpace(q.Get("q")),
	}
	page := h.page(r)
	carriers, total, err := h.db.ListCarriers(r.Context(), tenant, filter, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, carriers, page, total)
}

// CreateCarrier adds a carrier. A DOT number already used in the tenant
// returns 409.
//
// @Summary Create carrier
// @Tags Carriers
// @Accept json
// @Produce json
// @Param body body models.CarrierRequest true "Carrier"
// @Success 201 {object} models.APIResponse{data=models.Carrier}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /carriers [post]
func (h *Handler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.CarrierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c := &models.Carrier{TenantID: tenant}
	applyCarrierRequest(c, &req)
	if err := h.db.CreateCarrier(r.Context(), c); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, c)
}

// GetCarrier returns one carrier.
//
// @Summary Get carrier
// @Tags Carriers
// @Produce json
// @Param id path string true "Carrier ID"
// @Success 200 {object} models.APIResponse{data=models.Carrier}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /carriers/{id} [get]
func (h *Handler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	c, err := h.db.GetCarrier(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// UpdateCarrier replaces a carrier's editable fields.
//
// @Summary Update carrier
// @Tags Carriers
// @Accept json
// @Produce json
// @Param id path string true "Carrier ID"
// @Param body body models.CarrierRequest true "Carrier"
// @Success 200 {object} models.APIResponse{data=models.Carrier}
// @Security BearerAuth
// @Router /carriers/{id} [put]
func (h *Handler) UpdateCarrier(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.CarrierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.db.GetCarrier(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	applyCarrierRequest(c, &req)
	if err := h.db.UpdateCarrier(r.Context(), c); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// DeleteCarrier removes a carrier that holds no active load.
//
// @Summary Delete carrier
// @Tags Carriers
// @Param id path string true "Carrier ID"
// @Success 204
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /carriers/{id} [delete]
func (h *Handler) DeleteCarrier(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteCarrier(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyCarrier looks the carrier's DOT number up in FMCSA and stores the
// authority status and safety rating. A carrier without active authority
// becomes blocked.
//
// @Summary Verify carrier with FMCSA
// @Tags Carriers
// @Produce json
// @Param id path string true "Carrier ID"
// @Success 200 {object} models.APIResponse{data=models.Carrier}
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /carriers/{id}/verify [post]
func (h *Handler) VerifyCarrier(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	c, err := h.db.GetCarrier(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if c.DOTNumber == "" {
		respondErrorDetails(w, http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "carrier has no DOT number to verify",
			Details: map[string]interface{}{"field": "dot_number"},
		}, nil)
		return
	}

	rec, err := h.fmcsa.LookupCarrier(r.Context(), c.DOTNumber)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	verification := rec.Verification()
	updated, err := h.db.ApplyCarrierVerification(r.Context(), tenant, c.ID, verification)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if verification.Block {
		logging.Ctx(r.Context()).Info().
			Str("carrier_id", c.ID).
			Str("authority_status", rec.AuthorityStatus).
			Msg("Carrier blocked after FMCSA verification")
	}
	respondData(w, http.StatusOK, updated)
}
