// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Workflow step types.
const (
	StepStart    = "start"
	StepTask     = "task"
	StepApproval = "approval"
	StepNotify   = "notify"
	StepEnd      = "end"
)

// Workflow triggers.
const (
	TriggerManual     = "manual"
	TriggerLoadStatus = "load_status"
)

// Execution statuses.
const (
	ExecutionRunning   = "running"
	ExecutionWaiting   = "waiting"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
	ExecutionCancelled = "cancelled"
)

// WorkflowStep is one node of a workflow graph.
type WorkflowStep struct {
	Key  string   `json:"key" validate:"required,max=64,slug"`
	Name string   `json:"name" validate:"required,min=1,max=200"`
	Type string   `json:"type" validate:"required,oneof=start task approval notify end"`
	Next []string `json:"next"`
}

// WorkflowDefinition is a configurable multi-step business process.
type WorkflowDefinition struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenant_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Trigger       string         `json:"trigger"`
	TriggerStatus string         `json:"trigger_status,omitempty"`
	Enabled       bool           `json:"enabled"`
	Steps         []WorkflowStep `json:"steps"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Step returns the step with the given key.
func (d *WorkflowDefinition) Step(key string) (WorkflowStep, bool) {
	for _, s := range d.Steps {
		if s.Key == key {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// StartStep returns the definition's start step.
func (d *WorkflowDefinition) StartStep() (WorkflowStep, bool) {
	for _, s := range d.Steps {
		if s.Type == StepStart {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// WorkflowDefinitionRequest is the body for creating or updating a definition.
type WorkflowDefinitionRequest struct {
	Name          string         `json:"name" validate:"required,min=1,max=200"`
	Description   string         `json:"description" validate:"omitempty,max=1000"`
	Trigger       string         `json:"trigger" validate:"required,oneof=manual load_status"`
	TriggerStatus string         `json:"trigger_status" validate:"required_if=Trigger load_status,omitempty,oneof=draft posted booked in_transit delivered cancelled"`
	Enabled       *bool          `json:"enabled"`
	Steps         []WorkflowStep `json:"steps" validate:"required,min=2,dive"`
}

// ExecutionEvent is one entry in an execution's history.
type ExecutionEvent struct {
	Step    string    `json:"step"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
	Actor   string    `json:"actor"`
}

// WorkflowExecution is a running or finished instance of a definition.
type WorkflowExecution struct {
	ID           string           `json:"id"`
	TenantID     string           `json:"tenant_id"`
	DefinitionID string           `json:"definition_id"`
	SubjectType  string           `json:"subject_type,omitempty"`
	SubjectID    string           `json:"subject_id,omitempty"`
	Status       string           `json:"status"`
	CurrentStep  string           `json:"current_step"`
	History      []ExecutionEvent `json:"history"`
	StartedAt    time.Time        `json:"started_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	Version      int64            `json:"version"`
}

// StartExecutionRequest is the body of POST /workflows/{id}/executions.
type StartExecutionRequest struct {
	SubjectType string `json:"subject_type" validate:"omitempty,oneof=load carrier quote document"`
	SubjectID   string `json:"subject_id" validate:"omitempty,max=64"`
}

// AdvanceRequest is the body of POST /executions/{id}/advance.
type AdvanceRequest struct {
	Choice string `json:"choice" validate:"omitempty,max=64"`
}

// FailRequest is the body of POST /executions/{id}/fail.
type FailRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}
