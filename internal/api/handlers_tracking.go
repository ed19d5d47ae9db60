// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/models"
)

var bboxParams = []string{"min_lat", "min_lon", "max_lat", "max_lon"}

// parseBoundingBox reads min_lat, min_lon, max_lat and max_lon. They are
// all set or all absent.
func parseBoundingBox(r *http.Request) (*models.BoundingBox, error) {
	q := r.URL.Query()
	var vals [4]float64
	present := 0
	for i, key := range bboxParams {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(bboxParams):
	default:
		return nil, fmt.Errorf("min_lat, min_lon, max_lat and max_lon must be given together")
	}
	box := &models.BoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if err := box.Validate(); err != nil {
		return nil, err
	}
	return box, nil
}

// TrackingMap returns the latest position of every tracked load.
//
// @Summary Live tracking map
// @Tags Tracking
// @Produce json
// @Param status query string false "Comma-separated load statuses"
// @Param carrier_id query string false "Carrier ID"
// @Param min_lat query number false "Bounding box south edge"
// @Param min_lon query number false "Bounding box west edge"
// @Param max_lat query number false "Bounding box north edge"
// @Param max_lon query number false "Bounding box east edge"
// @Param since query string false "Only positions at or after this time"
// @Success 200 {object} models.APIResponse{data=[]models.MapEntry}
// @Security BearerAuth
// @Router /tracking/map [get]
func (h *Handler) TrackingMap(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	filter := database.MapFilter{
		Statuses:  parseCommaSeparated(r, "status"),
		CarrierID: r.URL.Query().Get("carrier_id"),
	}
	for _, s := range filter.Statuses {
		if !models.IsValidLoadStatus(s) {
			respondBadQuery(w, fmt.Errorf("unknown load status %q", s))
			return
		}
	}
	var err error
	if filter.BBox, err = parseBoundingBox(r); err != nil {
		respondBadQuery(w, err)
		return
	}
	if filter.Since, err = getTimeParam(r, "since"); err != nil {
		respondBadQuery(w, err)
		return
	}

	entries, err := h.db.TrackingMap(r.Context(), tenant, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, entries)
}

// RecordPosition ingests a position ping for a booked or in-transit load.
// The first ping on a booked load moves it to in_transit.
//
// @Summary Record position
// @Tags Tracking
// @Accept json
// @Produce json
// @Param id path string true "Load ID"
// @Param body body models.PositionRequest true "Position"
// @Success 201 {object} models.APIResponse{data=models.Position}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id}/tracking [post]
func (h *Handler) RecordPosition(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.PositionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.RecordedAt != nil && req.RecordedAt.After(h.now().Add(maxClockSkew)) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "recorded_at is in the future", nil)
		return
	}
	res, err := h.board.RecordPosition(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if res.Change != nil {
		h.invalidateAnalytics(tenant)
	}
	respondData(w, http.StatusCreated, res.Position)
}

// LoadTrail returns a load's positions, oldest first.
//
// @Summary Position trail
// @Tags Tracking
// @Produce json
// @Param id path string true "Load ID"
// @Param since query string false "Only positions at or after this time"
// @Param limit query int false "Most recent positions to return (max 5000)"
// @Success 200 {object} models.APIResponse{data=[]models.Position}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /loads/{id}/tracking [get]
func (h *Handler) LoadTrail(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	since, err := getTimeParam(r, "since")
	if err != nil {
		respondBadQuery(w, err)
		return
	}
	trail, err := h.db.Trail(r.Context(), tenant, chi.URLParam(r, "id"), since, getIntParam(r, "limit", 0))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, trail)
}
