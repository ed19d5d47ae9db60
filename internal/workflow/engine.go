// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package workflow

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
	"github.com/tomtom215/haulbase/internal/models"
)

// History outcomes.
const (
	OutcomeEntered   = "entered"
	OutcomeDone      = "done"
	OutcomeWaiting   = "waiting"
	OutcomeApproved  = "approved"
	OutcomeChose     = "chose"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Store persists definitions and executions.
type Store interface {
	CreateWorkflowDefinition(ctx context.Context, d *models.WorkflowDefinition) error
	GetWorkflowDefinition(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error)
	ListWorkflowDefinitions(ctx context.Context, tenantID string) ([]models.WorkflowDefinition, error)
	ListStatusTriggeredDefinitions(ctx context.Context, tenantID, status string) ([]models.WorkflowDefinition, error)
	UpdateWorkflowDefinition(ctx context.Context, d *models.WorkflowDefinition) error
	DeleteWorkflowDefinition(ctx context.Context, tenantID, id string) error
	CreateWorkflowExecution(ctx context.Context, e *models.WorkflowExecution) (bool, error)
	UpdateWorkflowExecution(ctx context.Context, e *models.WorkflowExecution) error
	GetWorkflowExecution(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error)
	ListWorkflowExecutions(ctx context.Context, tenantID string, f database.ExecutionFilter, page models.Page) ([]models.WorkflowExecution, int64, error)
}

// Engine validates definitions and drives executions through their steps.
// Executions advance on their own through start, task and notify steps with
// a single next step, and wait at approvals and branches.
type Engine struct {
	store  Store
	events events.Publisher
	now    func() time.Time
}

// NewEngine creates a workflow engine. A nil publisher discards events.
func NewEngine(store Store, pub events.Publisher) *Engine {
	if pub == nil {
		pub = events.Discard
	}
	return &Engine{store: store, events: pub, now: time.Now}
}

// CreateDefinition validates and stores a new definition.
func (e *Engine) CreateDefinition(ctx context.Context, tenantID string, req *models.WorkflowDefinitionRequest) (*models.WorkflowDefinition, error) {
	if err := Validate(req.Steps); err != nil {
		return nil, err
	}
	d := &models.WorkflowDefinition{TenantID: tenantID}
	applyRequest(d, req)
	if err := e.store.CreateWorkflowDefinition(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDefinition replaces a definition. Running executions keep the
// step keys they already hold.
func (e *Engine) UpdateDefinition(ctx context.Context, tenantID, id string, req *models.WorkflowDefinitionRequest) (*models.WorkflowDefinition, error) {
	if err := Validate(req.Steps); err != nil {
		return nil, err
	}
	d, err := e.store.GetWorkflowDefinition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyRequest(d, req)
	if err := e.store.UpdateWorkflowDefinition(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func applyRequest(d *models.WorkflowDefinition, req *models.WorkflowDefinitionRequest) {
	d.Name = req.Name
	d.Description = req.Description
	d.Trigger = req.Trigger
	d.TriggerStatus = ""
	if req.Trigger == models.TriggerLoadStatus {
		d.TriggerStatus = req.TriggerStatus
	}
	d.Enabled = true
	if req.Enabled != nil {
		d.Enabled = *req.Enabled
	}
	d.Steps = req.Steps
}

// GetDefinition returns one definition.
func (e *Engine) GetDefinition(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	return e.store.GetWorkflowDefinition(ctx, tenantID, id)
}

// ListDefinitions returns the tenant's definitions.
func (e *Engine) ListDefinitions(ctx context.Context, tenantID string) ([]models.WorkflowDefinition, error) {
	return e.store.ListWorkflowDefinitions(ctx, tenantID)
}

// DeleteDefinition removes a definition with no active executions.
func (e *Engine) DeleteDefinition(ctx context.Context, tenantID, id string) error {
	return e.store.DeleteWorkflowDefinition(ctx, tenantID, id)
}

// GetExecution returns one execution.
func (e *Engine) GetExecution(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error) {
	return e.store.GetWorkflowExecution(ctx, tenantID, id)
}

// ListExecutions returns executions matching f, newest first.
func (e *Engine) ListExecutions(ctx context.Context, tenantID string, f database.ExecutionFilter, page models.Page) ([]models.WorkflowExecution, int64, error) {
	return e.store.ListWorkflowExecutions(ctx, tenantID, f, page)
}

// Start creates an execution of an enabled definition and runs it until it
// waits or finishes.
func (e *Engine) Start(ctx context.Context, tenantID, actor, definitionID string, req models.StartExecutionRequest) (*models.WorkflowExecution, error) {
	exec, _, err := e.start(ctx, tenantID, actor, definitionID, uuid.NewString(), req)
	return exec, err
}

// start runs a new execution under id. When an execution with id already
// exists it returns nil and false without touching it.
func (e *Engine) start(ctx context.Context, tenantID, actor, definitionID, id string, req models.StartExecutionRequest) (*models.WorkflowExecution, bool, error) {
	def, err := e.store.GetWorkflowDefinition(ctx, tenantID, definitionID)
	if err != nil {
		return nil, false, err
	}
	if !def.Enabled {
		return nil, false, fmt.Errorf("workflow %s is disabled: %w", def.ID, database.ErrConflict)
	}
	start, ok := def.StartStep()
	if !ok {
		return nil, false, fmt.Errorf("workflow %s has no start step: %w", def.ID, ErrInvalidDefinition)
	}

	now := e.now().UTC()
	exec := &models.WorkflowExecution{
		ID:           id,
		TenantID:     tenantID,
		DefinitionID: def.ID,
		SubjectType:  req.SubjectType,
		SubjectID:    req.SubjectID,
		Status:       models.ExecutionRunning,
		CurrentStep:  start.Key,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	e.record(exec, start.Key, OutcomeEntered, actor)
	e.run(def, exec, actor)

	created, err := e.store.CreateWorkflowExecution(ctx, exec)
	if err != nil || !created {
		return nil, false, err
	}
	e.saved(ctx, def, exec)
	return exec, true, nil
}

// Advance resumes a waiting execution. choice picks the next step when the
// current step branches, and must be empty or the only next step otherwise.
func (e *Engine) Advance(ctx context.Context, tenantID, actor, executionID, choice string) (*models.WorkflowExecution, error) {
	exec, def, err := e.load(ctx, tenantID, executionID)
	if err != nil {
		return nil, err
	}
	if exec.Status != models.ExecutionWaiting {
		return nil, fmt.Errorf("execution %s is %s, not waiting: %w", exec.ID, exec.Status, database.ErrInvalidTransition)
	}
	step, ok := def.Step(exec.CurrentStep)
	if !ok {
		return nil, fmt.Errorf("execution %s is at unknown step %q: %w", exec.ID, exec.CurrentStep, database.ErrConflict)
	}

	var target, outcome string
	switch {
	case len(step.Next) == 1 && (choice == "" || choice == step.Next[0]):
		target, outcome = step.Next[0], OutcomeApproved
	case len(step.Next) > 1 && slices.Contains(step.Next, choice):
		target, outcome = choice, OutcomeChose+":"+choice
	default:
		return nil, fmt.Errorf("step %q cannot continue to %q (options %v): %w",
			step.Key, choice, step.Next, database.ErrInvalidTransition)
	}

	e.record(exec, step.Key, outcome, actor)
	exec.Status = models.ExecutionRunning
	exec.CurrentStep = target
	e.record(exec, target, OutcomeEntered, actor)
	e.run(def, exec, actor)
	return e.update(ctx, def, exec)
}

// Fail stops an active execution with a reason.
func (e *Engine) Fail(ctx context.Context, tenantID, actor, executionID, reason string) (*models.WorkflowExecution, error) {
	return e.finish(ctx, tenantID, actor, executionID, models.ExecutionFailed, OutcomeFailed+": "+reason)
}

// Cancel stops an active execution.
func (e *Engine) Cancel(ctx context.Context, tenantID, actor, executionID string) (*models.WorkflowExecution, error) {
	return e.finish(ctx, tenantID, actor, executionID, models.ExecutionCancelled, OutcomeCancelled)
}

func (e *Engine) finish(ctx context.Context, tenantID, actor, executionID, status, outcome string) (*models.WorkflowExecution, error) {
	exec, def, err := e.load(ctx, tenantID, executionID)
	if err != nil {
		return nil, err
	}
	if !active(exec.Status) {
		return nil, fmt.Errorf("execution %s is already %s: %w", exec.ID, exec.Status, database.ErrInvalidTransition)
	}
	exec.Status = status
	e.record(exec, exec.CurrentStep, outcome, actor)
	return e.update(ctx, def, exec)
}

func (e *Engine) load(ctx context.Context, tenantID, executionID string) (*models.WorkflowExecution, *models.WorkflowDefinition, error) {
	exec, err := e.store.GetWorkflowExecution(ctx, tenantID, executionID)
	if err != nil {
		return nil, nil, err
	}
	def, err := e.store.GetWorkflowDefinition(ctx, tenantID, exec.DefinitionID)
	if err != nil {
		return nil, nil, err
	}
	return exec, def, nil
}

// run follows the graph from the current step until input is needed or an
// end step is reached. Validated graphs have no loops of automatic steps.
func (e *Engine) run(def *models.WorkflowDefinition, exec *models.WorkflowExecution, actor string) {
	for steps := 0; steps <= len(def.Steps); steps++ {
		step, ok := def.Step(exec.CurrentStep)
		if !ok {
			exec.Status = models.ExecutionFailed
			e.record(exec, exec.CurrentStep, OutcomeFailed+": unknown step", actor)
			return
		}

		switch {
		case step.Type == models.StepEnd:
			exec.Status = models.ExecutionCompleted
			e.record(exec, step.Key, OutcomeCompleted, actor)
			return
		case step.Type == models.StepApproval || len(step.Next) != 1:
			exec.Status = models.ExecutionWaiting
			e.record(exec, step.Key, OutcomeWaiting, actor)
			return
		}

		e.record(exec, step.Key, OutcomeDone, actor)
		exec.CurrentStep = step.Next[0]
		e.record(exec, exec.CurrentStep, OutcomeEntered, actor)
	}

	exec.Status = models.ExecutionFailed
	e.record(exec, exec.CurrentStep, OutcomeFailed+": step limit exceeded", actor)
}

func (e *Engine) record(exec *models.WorkflowExecution, step, outcome, actor string) {
	now := e.now().UTC()
	exec.History = append(exec.History, models.ExecutionEvent{Step: step, Outcome: outcome, At: now, Actor: actor})
	exec.UpdatedAt = now
	if !active(exec.Status) && exec.FinishedAt == nil {
		exec.FinishedAt = &now
	}
}

// update writes exec unless it changed since it was loaded, in which case
// the store returns ErrConflict.
func (e *Engine) update(ctx context.Context, def *models.WorkflowDefinition, exec *models.WorkflowExecution) (*models.WorkflowExecution, error) {
	if err := e.store.UpdateWorkflowExecution(ctx, exec); err != nil {
		return nil, err
	}
	e.saved(ctx, def, exec)
	return exec, nil
}

// saved counts a stored execution's status and announces terminal states.
func (e *Engine) saved(ctx context.Context, def *models.WorkflowDefinition, exec *models.WorkflowExecution) {
	if exec.Status != models.ExecutionRunning {
		metrics.WorkflowExecutions.WithLabelValues(exec.Status).Inc()
	}
	if active(exec.Status) {
		return
	}

	ev, err := events.New(events.TopicWorkflowCompleted, exec.TenantID, "workflow_execution", exec.ID, lastActor(exec),
		events.WorkflowCompleted{
			ExecutionID:  exec.ID,
			DefinitionID: def.ID,
			SubjectType:  exec.SubjectType,
			SubjectID:    exec.SubjectID,
			Status:       exec.Status,
		})
	if err == nil {
		err = e.events.Publish(ctx, ev)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("execution_id", exec.ID).Msg("Failed to publish workflow completion")
	}
}

func active(status string) bool {
	return status == models.ExecutionRunning || status == models.ExecutionWaiting
}

func lastActor(exec *models.WorkflowExecution) string {
	if n := len(exec.History); n > 0 {
		return exec.History[n-1].Actor
	}
	return ""
}
