// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/events"
)

// EventData is the data of a pushed domain event.
type EventData struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Actor      string          `json:"actor,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// ForwardedTopics are pushed to clients.
var ForwardedTopics = []string{
	events.TopicLoadStatusChanged,
	events.TopicBidPlaced,
	events.TopicBidAccepted,
	events.TopicTrackingPosition,
	events.TopicWorkflowCompleted,
}

// Subscribe registers one bus handler per forwarded topic that pushes the
// event to the clients of the event's tenant.
func (h *Hub) Subscribe(bus events.Registrar) error {
	for _, topic := range ForwardedTopics {
		if err := bus.AddHandler("websocket-"+topic, topic, h.Forward); err != nil {
			return fmt.Errorf("forward %s: %w", topic, err)
		}
	}
	return nil
}

// Forward broadcasts ev to its tenant. It never fails: clients that are not
// connected simply miss the event.
func (h *Hub) Forward(_ context.Context, ev *events.Event) error {
	h.Broadcast(ev.TenantID, ev.Topic, EventData{
		ID:         ev.ID,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Actor:      ev.Actor,
		OccurredAt: ev.OccurredAt,
		Payload:    ev.Payload,
	})
	return nil
}
