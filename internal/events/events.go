// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Domain topics.
const (
	TopicLoadStatusChanged = "load.status_changed"
	TopicBidPlaced         = "bid.placed"
	TopicBidAccepted       = "bid.accepted"
	TopicTrackingPosition  = "tracking.position"
	TopicWorkflowCompleted = "workflow.completed"
)

// Topics lists every domain topic.
func Topics() []string {
	return []string{
		TopicLoadStatusChanged,
		TopicBidPlaced,
		TopicBidAccepted,
		TopicTrackingPosition,
		TopicWorkflowCompleted,
	}
}

// ErrMissingTenant is returned when publishing an event without a tenant.
var ErrMissingTenant = errors.New("event has no tenant")

// Event is the envelope carried on the bus. Payload holds one of the
// topic-specific structs below, encoded as JSON.
type Event struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	TenantID   string          `json:"tenant_id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Actor      string          `json:"actor,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event and encodes payload.
func New(topic, tenantID, entityType, entityID, actor string, payload any) (*Event, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return &Event{
		ID:         uuid.New().String(),
		Topic:      topic,
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Topic, err)
	}
	return nil
}

// Publisher is implemented by Bus. Domain services depend on this.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
}

// Registrar is implemented by Bus. Consumers register through this.
type Registrar interface {
	AddHandler(name, topic string, h HandlerFunc) error
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, *Event) error { return nil }

// LoadStatusChanged is published on every load transition.
type LoadStatusChanged struct {
	LoadID    string `json:"load_id"`
	Reference string `json:"reference"`
	From      string `json:"from"`
	To        string `json:"to"`
	CarrierID string `json:"carrier_id,omitempty"`
	Note      string `json:"note,omitempty"`
}

// BidPlaced is published when a carrier places or replaces a bid.
type BidPlaced struct {
	BidID       string `json:"bid_id"`
	LoadID      string `json:"load_id"`
	CarrierID   string `json:"carrier_id"`
	AmountCents int64  `json:"amount_cents"`
	Replaced    bool   `json:"replaced"`
}

// BidAccepted is published when a load is booked from a bid.
type BidAccepted struct {
	BidID         string `json:"bid_id"`
	LoadID        string `json:"load_id"`
	CarrierID     string `json:"carrier_id"`
	AmountCents   int64  `json:"amount_cents"`
	RejectedCount int64  `json:"rejected_count"`
}

// TrackingPosition is published for every accepted ping.
type TrackingPosition struct {
	LoadID     string    `json:"load_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedMph   float64   `json:"speed_mph"`
	Heading    int       `json:"heading"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WorkflowCompleted is published when an execution reaches an end step.
type WorkflowCompleted struct {
	ExecutionID  string `json:"execution_id"`
	DefinitionID string `json:"definition_id"`
	SubjectType  string `json:"subject_type"`
	SubjectID    string `json:"subject_id"`
	Status       string `json:"status"`
}
