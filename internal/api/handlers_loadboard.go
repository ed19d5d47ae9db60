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

// bidAcceptance is the response body of an accepted bid.
type bidAcceptance struct {
	Bid      *models.Bid  `json:"bid"`
	Load     *models.Load `json:"load"`
	Rejected int64        `json:"rejected_bids"`
}

// LoadBoard lists posted loads with their bid count and lowest bid.
//
// @Summary Load board
// @Tags Load board
// @Produce json
// @Param equipment query string false "Equipment code"
// @Param origin_state query string false "Origin state"
// @Param destination_state query string false "Destination state"
// @Param pickup_from query string false "Earliest pickup"
// @Param pickup_to query string false "Latest pickup"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.BoardEntry}
// @Security BearerAuth
// @Router /loadboard [get]
func (h *Handler) LoadBoard(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	filter, err := parseLoadFilter(r)
	if err != nil {
		respondBadQuery(w, err)
		return
	}
	filter.Statuses = nil
	page := h.page(r)
	entries, total, err := h.board.Board(r.Context(), tenant, filter, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, entries, page, total)
}

// ListBids lists a load's bids, cheapest first.
//
// @Summary List bids on a load
// @Tags Load board
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} models.APIResponse{data=[]models.Bid}
// @Security BearerAuth
// @Router /loads/{id}/bids [get]
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	bids, err := h.board.Bids(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, bids)
}

// PlaceBid bids on a posted load. A carrier's second bid replaces the
// amount of its open bid and answers 200 instead of 201.
//
// @Summary Place bid
// @Tags Load board
// @Accept json
// @Produce json
// @Param id path string true "Load ID"
// @Param body body models.BidRequest true "Bid"
// @Success 201 {object} models.APIResponse{data=models.Bid}
// @Success 200 {object} models.APIResponse{data=models.Bid}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id}/bids [post]
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.BidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bid, replaced, err := h.board.PlaceBid(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	respondData(w, status, bid)
}

// AcceptBid books the load to the bid's carrier and rejects the other open
// bids.
//
// @Summary Accept bid
// @Tags Load board
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} models.APIResponse
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /bids/{id}/accept [post]
func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	acc, err := h.board.AcceptBid(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusOK, bidAcceptance{Bid: acc.Bid, Load: acc.Load, Rejected: acc.Rejected})
}

// WithdrawBid withdraws an open bid.
//
// @Summary Withdraw bid
// @Tags Load board
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} models.APIResponse{data=models.Bid}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /bids/{id}/withdraw [post]
func (h *Handler) WithdrawBid(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	bid, err := h.board.WithdrawBid(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.invalidateAnalytics(tenant)
	respondData(w, http.StatusOK, bid)
}
