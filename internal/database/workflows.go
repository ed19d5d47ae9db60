// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// ExecutionFilter narrows an execution listing. Empty fields do not filter.
type ExecutionFilter struct {
	DefinitionID string
	Status       string
	SubjectType  string
	SubjectID    string
}

const definitionColumns = `id, tenant_id, name, description, trigger_type, trigger_status, enabled, steps, created_at, updated_at`

func scanDefinition(row scanner) (*models.WorkflowDefinition, error) {
	d := &models.WorkflowDefinition{}
	var description, triggerStatus sql.NullString
	var steps string
	if err := row.Scan(&d.ID, &d.TenantID, &d.Name, &description, &d.Trigger, &triggerStatus,
		&d.Enabled, &steps, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Description = description.String
	d.TriggerStatus = triggerStatus.String
	if err := json.Unmarshal([]byte(steps), &d.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode workflow steps: %w", err)
	}
	return d, nil
}

// CreateWorkflowDefinition stores a definition. Validation happens in the engine.
func (db *DB) CreateWorkflowDefinition(ctx context.Context, d *models.WorkflowDefinition) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode workflow steps: %w", err)
	}
	now := db.now()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt, d.UpdatedAt = now, now

	_, err = db.conn.ExecContext(ctx, `INSERT INTO workflow_definitions (`+definitionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.TenantID, d.Name, nullString(d.Description), d.Trigger, nullString(d.TriggerStatus),
		d.Enabled, string(steps), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert workflow definition: %w", err)
	}
	return nil
}

// GetWorkflowDefinition returns one definition of the tenant.
func (db *DB) GetWorkflowDefinition(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	d, err := scanDefinition(db.conn.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM workflow_definitions WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow definition %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow definition: %w", err)
	}
	return d, nil
}

func (db *DB) queryDefinitions(ctx context.Context, query string, args ...interface{}) ([]models.WorkflowDefinition, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow definitions: %w", err)
	}
	defer rows.Close()

	defs := []models.WorkflowDefinition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

// ListWorkflowDefinitions returns the tenant's definitions by name.
func (db *DB) ListWorkflowDefinitions(ctx context.Context, tenantID string) ([]models.WorkflowDefinition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.queryDefinitions(ctx, `SELECT `+definitionColumns+` FROM workflow_definitions
		WHERE tenant_id = ? ORDER BY name, id`, tenantID)
}

// ListStatusTriggeredDefinitions returns the enabled definitions that start
// when a load enters status.
func (db *DB) ListStatusTriggeredDefinitions(ctx context.Context, tenantID, status string) ([]models.WorkflowDefinition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.queryDefinitions(ctx, `SELECT `+definitionColumns+` FROM workflow_definitions
		WHERE tenant_id = ? AND enabled AND trigger_type = ? AND trigger_status = ?
		ORDER BY name, id`, tenantID, models.TriggerLoadStatus, status)
}

// UpdateWorkflowDefinition replaces a definition's editable fields.
func (db *DB) UpdateWorkflowDefinition(ctx context.Context, d *models.WorkflowDefinition) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode workflow steps: %w", err)
	}
	d.UpdatedAt = db.now()
	result, err := db.conn.ExecContext(ctx, `UPDATE workflow_definitions
		SET name = ?, description = ?, trigger_type = ?, trigger_status = ?, enabled = ?, steps = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		d.Name, nullString(d.Description), d.Trigger, nullString(d.TriggerStatus), d.Enabled, string(steps),
		d.UpdatedAt, d.TenantID, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update workflow definition: %w", err)
	}
	return requireOneRow(result, "workflow definition "+d.ID)
}

// DeleteWorkflowDefinition removes a definition that has no active executions.
func (db *DB) DeleteWorkflowDefinition(ctx context.Context, tenantID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var active int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflow_executions
			WHERE tenant_id = ? AND definition_id = ? AND status IN (?, ?)`,
			tenantID, id, models.ExecutionRunning, models.ExecutionWaiting).Scan(&active); err != nil {
			return fmt.Errorf("failed to count active executions: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("workflow definition %s has %d active executions: %w", id, active, ErrConflict)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE tenant_id = ? AND id = ?`, tenantID, id)
		if err != nil {
			return fmt.Errorf("failed to delete workflow definition: %w", err)
		}
		return requireOneRow(result, "workflow definition "+id)
	})
}

const executionColumns = `id, tenant_id, definition_id, subject_type, subject_id, status, current_step,
	history, started_at, updated_at, finished_at, version`

func scanExecution(row scanner) (*models.WorkflowExecution, error) {
	e := &models.WorkflowExecution{}
	var subjectType, subjectID sql.NullString
	var history string
	var finished sql.NullTime
	if err := row.Scan(&e.ID, &e.TenantID, &e.DefinitionID, &subjectType, &subjectID, &e.Status,
		&e.CurrentStep, &history, &e.StartedAt, &e.UpdatedAt, &finished, &e.Version); err != nil {
		return nil, err
	}
	e.SubjectType = subjectType.String
	e.SubjectID = subjectID.String
	e.FinishedAt = timePtr(finished)
	if err := json.Unmarshal([]byte(history), &e.History); err != nil {
		return nil, fmt.Errorf("failed to decode execution history: %w", err)
	}
	return e, nil
}

func encodeHistory(e *models.WorkflowExecution) (string, error) {
	if e.History == nil {
		e.History = []models.ExecutionEvent{}
	}
	history, err := json.Marshal(e.History)
	if err != nil {
		return "", fmt.Errorf("failed to encode execution history: %w", err)
	}
	return string(history), nil
}

// CreateWorkflowExecution inserts a new execution. It reports false and
// leaves the stored row untouched when an execution with e.ID exists.
func (db *DB) CreateWorkflowExecution(ctx context.Context, e *models.WorkflowExecution) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	history, err := encodeHistory(e)
	if err != nil {
		return false, err
	}

	created := false
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflow_executions WHERE id = ?`, e.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check workflow execution: %w", err)
		}
		if exists > 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO workflow_executions (`+executionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.TenantID, e.DefinitionID, nullString(e.SubjectType), nullString(e.SubjectID), e.Status,
			e.CurrentStep, history, e.StartedAt, e.UpdatedAt, nullTime(e.FinishedAt), e.Version)
		if err != nil {
			return fmt.Errorf("failed to insert workflow execution: %w", err)
		}
		created = true
		return nil
	})
	if isUniqueConstraintError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return created, nil
}

// UpdateWorkflowExecution writes e only if the stored row still has
// e.Version, then increments e.Version. A row changed since it was read
// yields ErrConflict.
func (db *DB) UpdateWorkflowExecution(ctx context.Context, e *models.WorkflowExecution) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	history, err := encodeHistory(e)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx, `UPDATE workflow_executions
		SET status = ?, current_step = ?, history = ?, updated_at = ?, finished_at = ?, version = version + 1
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		e.Status, e.CurrentStep, history, e.UpdatedAt, nullTime(e.FinishedAt), e.TenantID, e.ID, e.Version)
	if isTransactionConflict(err) {
		return fmt.Errorf("workflow execution %s: %w", e.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update workflow execution: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("workflow execution %s changed since it was read: %w", e.ID, ErrConflict)
	}
	e.Version++
	return nil
}

// GetWorkflowExecution returns one execution of the tenant.
func (db *DB) GetWorkflowExecution(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	e, err := scanExecution(db.conn.QueryRowContext(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow execution: %w", err)
	}
	return e, nil
}

// ListWorkflowExecutions returns executions newest first.
func (db *DB) ListWorkflowExecutions(ctx context.Context, tenantID string, f ExecutionFilter, page models.Page) ([]models.WorkflowExecution, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}
	for _, c := range []struct{ col, val string }{
		{"definition_id", f.DefinitionID},
		{"status", f.Status},
		{"subject_type", f.SubjectType},
		{"subject_id", f.SubjectID},
	} {
		if c.val != "" {
			clauses = append(clauses, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflow_executions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count workflow executions: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT `+executionColumns+` FROM workflow_executions`+where+`
		ORDER BY started_at DESC, id LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query workflow executions: %w", err)
	}
	defer rows.Close()

	execs := []models.WorkflowExecution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workflow execution: %w", err)
		}
		execs = append(execs, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating workflow executions: %w", err)
	}
	return execs, total, nil
}
