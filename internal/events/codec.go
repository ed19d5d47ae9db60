// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
)

// Message metadata keys.
const (
	MetaTenantID      = "tenant_id"
	MetaEntityType    = "entity_type"
	MetaCorrelationID = "correlation_id"
)

// toMessage encodes ev as a watermill message whose UUID is the event id.
func toMessage(ev *Event, correlationID string) (*message.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(ev.ID, data)
	// JetStream drops duplicates carrying the same message id.
	msg.Metadata.Set(natsgo.MsgIdHdr, ev.ID)
	msg.Metadata.Set(MetaTenantID, ev.TenantID)
	msg.Metadata.Set(MetaEntityType, ev.EntityType)
	if correlationID != "" {
		msg.Metadata.Set(MetaCorrelationID, correlationID)
	}
	return msg, nil
}

// fromMessage decodes an event, falling back to message metadata for the
// tenant when the body omits it.
func fromMessage(msg *message.Message) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	if ev.TenantID == "" {
		ev.TenantID = msg.Metadata.Get(MetaTenantID)
	}
	if ev.ID == "" {
		ev.ID = msg.UUID
	}
	return &ev, nil
}
