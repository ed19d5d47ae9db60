// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/haulbase/internal/cache"
	"github.com/tomtom215/haulbase/internal/models"
)

// defaultAnalyticsWindow is used when from is not given.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// maxAnalyticsWindow bounds the range a single request may aggregate.
const maxAnalyticsWindow = 366 * 24 * time.Hour

type analyticsRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// parseAnalyticsRange reads from and to. to defaults to now and from to 30
// days before to. A date-only to covers that whole day.
func (h *Handler) parseAnalyticsRange(r *http.Request) (analyticsRange, error) {
	rng := analyticsRange{To: h.now().UTC()}
	to, err := getTimeParam(r, "to")
	if err != nil {
		return rng, err
	}
	if to != nil {
		rng.To = to.UTC()
		if len(r.URL.Query().Get("to")) == len(time.DateOnly) {
			rng.To = rng.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	rng.From = rng.To.Add(-defaultAnalyticsWindow)
	from, err := getTimeParam(r, "from")
	if err != nil {
		return rng, err
	}
	if from != nil {
		rng.From = from.UTC()
	}
	if !rng.From.Before(rng.To) {
		return rng, fmt.Errorf("from must be before to")
	}
	if rng.To.Sub(rng.From) > maxAnalyticsWindow {
		return rng, fmt.Errorf("range may span at most %d days", int(maxAnalyticsWindow/(24*time.Hour)))
	}
	return rng, nil
}

// cachedAnalytics serves method for the tenant and range from the analytics
// cache, running query on a miss.
func (h *Handler) cachedAnalytics(w http.ResponseWriter, r *http.Request, method string,
	query func(ctx context.Context, tenant string, rng analyticsRange) (interface{}, error)) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	rng, err := h.parseAnalyticsRange(r)
	if err != nil {
		respondBadQuery(w, err)
		return
	}

	start := time.Now()
	key := cache.TenantKey(tenant, method, rng)
	if cached, found := h.cache.Get(key); found {
		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data:   cached,
			Metadata: models.Metadata{
				Timestamp:   time.Now().UTC(),
				QueryTimeMS: time.Since(start).Milliseconds(),
				Cached:      true,
			},
		})
		return
	}

	result, err := query(r.Context(), tenant, rng)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.cache.Set(key, result)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// AnalyticsDashboard returns load counts, revenue, margin, on-time rate,
// top lanes and carriers, and bid activity for a date range.
//
// @Summary Operations dashboard
// @Tags Analytics
// @Produce json
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD), default 30 days before to"
// @Param to query string false "Range end (RFC 3339 or YYYY-MM-DD), default now"
// @Success 200 {object} models.APIResponse{data=models.Dashboard}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /analytics/dashboard [get]
func (h *Handler) AnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	h.cachedAnalytics(w, r, "dashboard", func(ctx context.Context, tenant string, rng analyticsRange) (interface{}, error) {
		return h.db.Dashboard(ctx, tenant, rng.From, rng.To)
	})
}

// AnalyticsLoadsByDay returns the number of loads created per day.
//
// @Summary Loads per day
// @Tags Analytics
// @Produce json
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Success 200 {object} models.APIResponse{data=[]models.DailyCount}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /analytics/loads-by-day [get]
func (h *Handler) AnalyticsLoadsByDay(w http.ResponseWriter, r *http.Request) {
	h.cachedAnalytics(w, r, "loads_by_day", func(ctx context.Context, tenant string, rng analyticsRange) (interface{}, error) {
		days, err := h.db.LoadsByDay(ctx, tenant, rng.From, rng.To)
		if err != nil {
			return nil, err
		}
		if days == nil {
			days = []models.DailyCount{}
		}
		return days, nil
	})
}
