// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("audit event not found")

// Source names what produced an audit event.
type Source string

const (
	SourceAPI   Source = "api"
	SourceEvent Source = "event"
)

// Outcome indicates whether the recorded action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// TypeAPIRequest is the type of events recorded by Middleware. Domain
// events use their topic as type.
const TypeAPIRequest = "api.request"

// Event is one entry of the audit trail.
type Event struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        Source          `json:"source"`
	Type          string          `json:"type"`
	Action        string          `json:"action"`
	Outcome       Outcome         `json:"outcome"`
	Actor         string          `json:"actor"`
	EntityType    string          `json:"entity_type,omitempty"`
	EntityID      string          `json:"entity_id,omitempty"`
	Description   string          `json:"description"`
	StatusCode    int             `json:"status_code,omitempty"`
	SourceIP      string          `json:"source_ip,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// QueryFilter narrows a listing. TenantID is required; empty fields do
// not filter.
type QueryFilter struct {
	TenantID   string
	EntityType string
	EntityID   string
	Actor      string
	Types      []string
	Since      *time.Time
	Limit      int
	Offset     int
}

// Stats summarizes a tenant's trail.
type Stats struct {
	TotalEvents    int64            `json:"total_events"`
	EventsByType   map[string]int64 `json:"events_by_type"`
	EventsBySource map[string]int64 `json:"events_by_source"`
	OldestEvent    *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time       `json:"newest_event,omitempty"`
}

// Store persists audit events.
type Store interface {
	// Save stores event. Saving an id that already exists is a no-op.
	Save(ctx context.Context, event *Event) error

	Get(ctx context.Context, tenantID, id string) (*Event, error)

	// Query returns matching events newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events of every tenant older than olderThan.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	Stats(ctx context.Context, tenantID string) (*Stats, error)
}

// DefaultLimit applies when a filter has no limit.
const DefaultLimit = 100

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}
