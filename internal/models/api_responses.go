// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint returns.
//
// Status is "success" or "error". Error is only set when Status is "error".
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-03-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing, cache and pagination details.
type Metadata struct {
	Timestamp   time.Time   `json:"timestamp"`
	QueryTimeMS int64       `json:"query_time_ms,omitempty"`
	Cached      bool        `json:"cached,omitempty"`
	Pagination  *Pagination `json:"pagination,omitempty"`
}

// APIError describes a failed request.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, CONFLICT, INVALID_TRANSITION,
// BID_NOT_ALLOWED, EQUIPMENT_UNAVAILABLE, UNAUTHORIZED, FORBIDDEN.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Pagination is the limit/offset window applied to a list response.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// Page is a limit/offset request window.
type Page struct {
	Limit  int
	Offset int
}

// NewPagination fills HasMore from the window and total.
func NewPagination(p Page, total int64) *Pagination {
	return &Pagination{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Total:   total,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    float64           `json:"uptime_seconds"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
