// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/logging"
)

// Subscribe registers one bus handler per domain topic that records the
// event in the trail.
func (l *Logger) Subscribe(bus events.Registrar) error {
	for _, topic := range events.Topics() {
		if err := bus.AddHandler("audit-"+topic, topic, l.RecordEvent); err != nil {
			return fmt.Errorf("audit %s: %w", topic, err)
		}
	}
	return nil
}

// RecordEvent writes ev synchronously so a store failure is retried by the
// bus. The event id is reused, making redelivery harmless.
func (l *Logger) RecordEvent(ctx context.Context, ev *events.Event) error {
	entry := &Event{
		ID:            ev.ID,
		TenantID:      ev.TenantID,
		Timestamp:     ev.OccurredAt.UTC(),
		Source:        SourceEvent,
		Type:          ev.Topic,
		Action:        actionOf(ev.Topic),
		Outcome:       OutcomeSuccess,
		Actor:         ev.Actor,
		EntityType:    ev.EntityType,
		EntityID:      ev.EntityID,
		Description:   describe(ev),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Metadata:      json.RawMessage(ev.Payload),
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}
	l.fill(entry)
	return l.save(ctx, entry)
}

func actionOf(topic string) string {
	switch topic {
	case events.TopicLoadStatusChanged:
		return "transition"
	case events.TopicBidPlaced:
		return "bid"
	case events.TopicBidAccepted:
		return "accept"
	case events.TopicTrackingPosition:
		return "ping"
	case events.TopicWorkflowCompleted:
		return "finish"
	default:
		return "event"
	}
}

// describe renders a one-line summary of ev. Undecodable payloads fall
// back to the topic.
func describe(ev *events.Event) string {
	switch ev.Topic {
	case events.TopicLoadStatusChanged:
		var p events.LoadStatusChanged
		if ev.Decode(&p) == nil {
			return fmt.Sprintf("load %s moved from %s to %s", p.Reference, p.From, p.To)
		}
	case events.TopicBidPlaced:
		var p events.BidPlaced
		if ev.Decode(&p) == nil {
			return fmt.Sprintf("carrier %s bid %s on load %s", p.CarrierID, cents(p.AmountCents), p.LoadID)
		}
	case events.TopicBidAccepted:
		var p events.BidAccepted
		if ev.Decode(&p) == nil {
			return fmt.Sprintf("bid %s accepted at %s, %d other bids rejected", p.BidID, cents(p.AmountCents), p.RejectedCount)
		}
	case events.TopicTrackingPosition:
		var p events.TrackingPosition
		if ev.Decode(&p) == nil {
			return fmt.Sprintf("load %s at %.4f,%.4f via %s", p.LoadID, p.Lat, p.Lon, p.Source)
		}
	case events.TopicWorkflowCompleted:
		var p events.WorkflowCompleted
		if ev.Decode(&p) == nil {
			return fmt.Sprintf("workflow execution %s %s", p.ExecutionID, p.Status)
		}
	}
	return ev.Topic
}

func cents(amount int64) string {
	return fmt.Sprintf("$%d.%02d", amount/100, amount%100)
}
