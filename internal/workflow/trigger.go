// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// TriggerActor is recorded on executions started by a load status change.
const TriggerActor = "workflow-trigger"

// triggerNamespace scopes execution ids derived from trigger events.
var triggerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/tomtom215/haulbase/workflow-trigger"))

// triggeredExecutionID is the execution id a load status event yields for a
// definition. Redelivered events map to the same id and start nothing new.
func triggeredExecutionID(eventID, definitionID string) string {
	return uuid.NewSHA1(triggerNamespace, []byte(eventID+"/"+definitionID)).String()
}

// Subscribe registers the load status trigger on the bus.
func (e *Engine) Subscribe(bus events.Registrar) error {
	return bus.AddHandler(TriggerActor, events.TopicLoadStatusChanged, e.HandleLoadStatus)
}

// HandleLoadStatus starts every enabled load_status definition whose
// trigger status matches the load's new status. Definitions that fail to
// start are reported together so the bus retries the event; on the retry,
// definitions already started for this event are skipped.
func (e *Engine) HandleLoadStatus(ctx context.Context, ev *events.Event) error {
	var change events.LoadStatusChanged
	if err := ev.Decode(&change); err != nil {
		return err
	}

	defs, err := e.store.ListStatusTriggeredDefinitions(ctx, ev.TenantID, change.To)
	if err != nil {
		return fmt.Errorf("list triggered workflows: %w", err)
	}

	var errs []error
	for _, def := range defs {
		exec, created, err := e.start(ctx, ev.TenantID, TriggerActor, def.ID, triggeredExecutionID(ev.ID, def.ID),
			models.StartExecutionRequest{SubjectType: "load", SubjectID: change.LoadID})
		if err != nil {
			errs = append(errs, fmt.Errorf("start workflow %s: %w", def.ID, err))
			continue
		}
		if !created {
			logging.Ctx(ctx).Debug().
				Str("workflow", def.Name).
				Str("event_id", ev.ID).
				Msg("Workflow already started for this event")
			continue
		}
		logging.Ctx(ctx).Info().
			Str("workflow", def.Name).
			Str("execution_id", exec.ID).
			Str("load_id", change.LoadID).
			Str("status", change.To).
			Msg("Workflow started by load status change")
	}
	return errors.Join(errs...)
}
