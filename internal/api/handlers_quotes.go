// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/models"
)

// ListQuotes lists quotes, optionally by status. status=expired matches
// open quotes past their validity.
//
// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param status query string false "Status" Enums(draft, sent, accepted, rejected, expired)
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.Quote}
// @Security BearerAuth
// @Router /quotes [get]
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.QuoteDraft, models.QuoteSent, models.QuoteAccepted, models.QuoteRejected, models.QuoteExpired:
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown quote status "+status, nil)
		return
	}
	page := h.page(r)
	quotes, total, err := h.db.ListQuotes(r.Context(), tenant, status, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, quotes, page, total)
}

// CreateQuote prices and stores a draft quote. A zero distance is derived
// from the coordinates.
//
// @Summary Create quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param body body models.QuoteRequest true "Quote"
// @Success 201 {object} models.APIResponse{data=models.Quote}
// @Security BearerAuth
// @Router /quotes [post]
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.QuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	q := &models.Quote{
		TenantID:          tenant,
		CustomerName:      req.CustomerName,
		Origin:            req.Origin,
		Destination:       req.Destination,
		EquipmentType:     req.EquipmentType,
		DistanceMiles:     req.DistanceMiles,
		WeightLbs:         req.WeightLbs,
		AccessorialsCents: req.AccessorialsCents,
	}
	if req.ValidUntil != nil {
		if !req.ValidUntil.After(h.now()) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "valid_until must be in the future", nil)
			return
		}
		q.ValidUntil = *req.ValidUntil
	}
	if err := h.db.CreateQuote(r.Context(), q); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, q)
}

// GetQuote returns one quote.
//
// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} models.APIResponse{data=models.Quote}
// @Security BearerAuth
// @Router /quotes/{id} [get]
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	q, err := h.db.GetQuote(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, q)
}

// transitionQuote returns a handler that moves a quote to status to.
func (h *Handler) transitionQuote(to string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := requireTenant(w, r)
		if !ok {
			return
		}
		q, err := h.db.TransitionQuote(r.Context(), tenant, chi.URLParam(r, "id"), to)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondData(w, http.StatusOK, q)
	}
}

// SendQuote marks a draft quote as sent.
//
// @Summary Send quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} models.APIResponse{data=models.Quote}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/send [post]
func (h *Handler) SendQuote(w http.ResponseWriter, r *http.Request) {
	h.transitionQuote(models.QuoteSent)(w, r)
}

// AcceptQuote accepts an open quote. Expired quotes return 422.
//
// @Summary Accept quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} models.APIResponse{data=models.Quote}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/accept [post]
func (h *Handler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	h.transitionQuote(models.QuoteAccepted)(w, r)
}

// RejectQuote rejects an open quote.
//
// @Summary Reject quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} models.APIResponse{data=models.Quote}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/reject [post]
func (h *Handler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	h.transitionQuote(models.QuoteRejected)(w, r)
}

// ConvertQuote creates a draft load from an accepted quote.
//
// @Summary Convert quote to load
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param body body models.ConvertQuoteRequest true "Load dates"
// @Success 201 {object} models.APIResponse{data=models.Load}
// @Failure 409 {object} models.APIResponse
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/convert [post]
func (h *Handler) ConvertQuote(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.ConvertQuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	load, err := h.db.ConvertQuote(r.Context(), tenant, chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusCreated, load)
}
