// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/haulbase/internal/models"
)

func testDefinition(trigger, status string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		TenantID:      testTenant,
		Name:          "Delivery paperwork",
		Trigger:       trigger,
		TriggerStatus: status,
		Enabled:       true,
		Steps: []models.WorkflowStep{
			{Key: "start", Name: "Start", Type: models.StepStart, Next: []string{"pod"}},
			{Key: "pod", Name: "Collect POD", Type: models.StepApproval, Next: []string{"done"}},
			{Key: "done", Name: "Done", Type: models.StepEnd},
		},
	}
}

func TestWorkflowDefinitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	manual := testDefinition(models.TriggerManual, "")
	triggered := testDefinition(models.TriggerLoadStatus, models.LoadDelivered)
	triggered.Name = "On delivery"
	for _, d := range []*models.WorkflowDefinition{manual, triggered} {
		if err := db.CreateWorkflowDefinition(ctx, d); err != nil {
			t.Fatalf("CreateWorkflowDefinition: %v", err)
		}
	}

	got, err := db.GetWorkflowDefinition(ctx, testTenant, manual.ID)
	if err != nil {
		t.Fatalf("GetWorkflowDefinition: %v", err)
	}
	if len(got.Steps) != 3 || got.Steps[0].Next[0] != "pod" {
		t.Errorf("steps = %+v", got.Steps)
	}

	matches, err := db.ListStatusTriggeredDefinitions(ctx, testTenant, models.LoadDelivered)
	if err != nil {
		t.Fatalf("ListStatusTriggeredDefinitions: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != triggered.ID {
		t.Errorf("matches = %+v", matches)
	}

	triggered.Enabled = false
	if err := db.UpdateWorkflowDefinition(ctx, triggered); err != nil {
		t.Fatalf("UpdateWorkflowDefinition: %v", err)
	}
	matches, err = db.ListStatusTriggeredDefinitions(ctx, testTenant, models.LoadDelivered)
	if err != nil {
		t.Fatalf("ListStatusTriggeredDefinitions: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("disabled definition still triggers")
	}

	if _, err := db.GetWorkflowDefinition(ctx, otherTestTenant, manual.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant error = %v, want ErrNotFound", err)
	}
}

func TestWorkflowExecutions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	def := testDefinition(models.TriggerManual, "")
	if err := db.CreateWorkflowDefinition(ctx, def); err != nil {
		t.Fatalf("CreateWorkflowDefinition: %v", err)
	}

	now := db.now()
	exec := &models.WorkflowExecution{
		ID:           "exec-1",
		TenantID:     testTenant,
		DefinitionID: def.ID,
		SubjectType:  "load",
		SubjectID:    "load-1",
		Status:       models.ExecutionWaiting,
		CurrentStep:  "pod",
		History:      []models.ExecutionEvent{{Step: "start", Outcome: "entered", At: now, Actor: "tester"}},
		StartedAt:    now,
		UpdatedAt:    now,
	}
	created, err := db.CreateWorkflowExecution(ctx, exec)
	if err != nil || !created {
		t.Fatalf("CreateWorkflowExecution = %v, %v; want created", created, err)
	}
	dup := *exec
	dup.Status = models.ExecutionRunning
	if created, err := db.CreateWorkflowExecution(ctx, &dup); err != nil || created {
		t.Errorf("second CreateWorkflowExecution = %v, %v; want existing row kept", created, err)
	}

	if err := db.DeleteWorkflowDefinition(ctx, testTenant, def.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("delete with active execution error = %v, want ErrConflict", err)
	}

	exec.Status = models.ExecutionCompleted
	exec.CurrentStep = "done"
	exec.FinishedAt = &now
	exec.History = append(exec.History, models.ExecutionEvent{Step: "done", Outcome: "completed", At: now, Actor: "tester"})
	stale := *exec
	if err := db.UpdateWorkflowExecution(ctx, exec); err != nil {
		t.Fatalf("UpdateWorkflowExecution: %v", err)
	}
	if exec.Version != 1 {
		t.Errorf("Version = %d after update, want 1", exec.Version)
	}
	stale.Status = models.ExecutionCancelled
	if err := db.UpdateWorkflowExecution(ctx, &stale); !errors.Is(err, ErrConflict) {
		t.Errorf("update from a stale read error = %v, want ErrConflict", err)
	}

	got, err := db.GetWorkflowExecution(ctx, testTenant, exec.ID)
	if err != nil {
		t.Fatalf("GetWorkflowExecution: %v", err)
	}
	if got.Status != models.ExecutionCompleted || len(got.History) != 2 || got.FinishedAt == nil || got.Version != 1 {
		t.Errorf("execution = %+v", got)
	}

	list, total, err := db.ListWorkflowExecutions(ctx, testTenant, ExecutionFilter{SubjectID: "load-1"}, models.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListWorkflowExecutions: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("list total=%d len=%d", total, len(list))
	}
	_, total, err = db.ListWorkflowExecutions(ctx, testTenant, ExecutionFilter{Status: models.ExecutionRunning}, models.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListWorkflowExecutions: %v", err)
	}
	if total != 0 {
		t.Errorf("running filter matched %d", total)
	}

	if err := db.DeleteWorkflowDefinition(ctx, testTenant, def.ID); err != nil {
		t.Errorf("delete finished definition: %v", err)
	}
}
