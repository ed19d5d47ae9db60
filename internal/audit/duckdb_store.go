// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

// DuckDBStore persists events in the audit_events table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps db. CreateTable must run before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		type TEXT NOT NULL,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actor TEXT NOT NULL,
		entity_type TEXT,
		entity_id TEXT,
		description TEXT NOT NULL,
		status_code INTEGER,
		source_ip TEXT,
		user_agent TEXT,
		request_id TEXT,
		correlation_id TEXT,
		metadata JSON
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_tenant_time ON audit_events(tenant_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_events(tenant_id, entity_type, entity_id)`,
}

// CreateTable creates the audit_events table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	logging.Debug().Msg("audit_events table created/verified")
	return nil
}

const eventColumns = `id, tenant_id, timestamp, source, type, action, outcome, actor, entity_type, entity_id,
	description, status_code, source_ip, user_agent, request_id, correlation_id`

// Save inserts event, ignoring ids that are already stored.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) (err error) {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "audit_events", time.Since(start), err) }()

	var metadata *string
	if len(event.Metadata) > 0 {
		m := string(event.Metadata)
		metadata = &m
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO audit_events (`+eventColumns+`, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.TenantID, event.Timestamp.UTC(), string(event.Source), event.Type, event.Action,
		string(event.Outcome), event.Actor, nullable(event.EntityType), nullable(event.EntityID),
		event.Description, nullableInt(event.StatusCode), nullable(event.SourceIP), nullable(event.UserAgent),
		nullable(event.RequestID), nullable(event.CorrelationID), metadata)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		e                                                       Event
		source, outcome                                         string
		entityType, entityID, sourceIP, userAgent, reqID, corID sql.NullString
		metadata                                                sql.NullString
		status                                                  sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.TenantID, &e.Timestamp, &source, &e.Type, &e.Action, &outcome, &e.Actor,
		&entityType, &entityID, &e.Description, &status, &sourceIP, &userAgent, &reqID, &corID, &metadata); err != nil {
		return nil, err
	}
	e.Source = Source(source)
	e.Outcome = Outcome(outcome)
	e.EntityType = entityType.String
	e.EntityID = entityID.String
	e.StatusCode = int(status.Int64)
	e.SourceIP = sourceIP.String
	e.UserAgent = userAgent.String
	e.RequestID = reqID.String
	e.CorrelationID = corID.String
	if metadata.Valid {
		e.Metadata = []byte(metadata.String)
	}
	return &e, nil
}

// Get returns one event of the tenant.
func (s *DuckDBStore) Get(ctx context.Context, tenantID, id string) (*Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+`, CAST(metadata AS VARCHAR)
		FROM audit_events WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return e, nil
}

func buildWhere(f QueryFilter) (string, []interface{}) {
	clauses := []string{"tenant_id = ?"}
	args := []interface{}{f.TenantID}
	for _, c := range []struct{ col, val string }{
		{"entity_type", f.EntityType},
		{"entity_id", f.EntityID},
		{"actor", f.Actor},
	} {
		if c.val != "" {
			clauses = append(clauses, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	if f.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.Since.UTC())
	}
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		clauses = append(clauses, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query returns matching events newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) (events []Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "audit_events", time.Since(start), err) }()

	where, args := buildWhere(filter)
	args = append(args, filter.limit(), filter.Offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+`, CAST(metadata AS VARCHAR)
		FROM audit_events`+where+` ORDER BY timestamp DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events = []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events, ignoring limit and offset.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(filter)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return n, nil
}

// Delete removes events older than olderThan.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return n, nil
}

// countByColumn groups the tenant's events by column. column is never user
// input.
func (s *DuckDBStore) countByColumn(ctx context.Context, tenantID, column string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM audit_events WHERE tenant_id = ? GROUP BY `+column, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit events by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// Stats summarizes the tenant's trail.
func (s *DuckDBStore) Stats(ctx context.Context, tenantID string) (*Stats, error) {
	stats := &Stats{}
	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM audit_events WHERE tenant_id = ?`, tenantID).Scan(&stats.TotalEvents, &oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to get audit totals: %w", err)
	}
	if oldest.Valid {
		stats.OldestEvent = &oldest.Time
	}
	if newest.Valid {
		stats.NewestEvent = &newest.Time
	}

	var err error
	if stats.EventsByType, err = s.countByColumn(ctx, tenantID, "type"); err != nil {
		return nil, err
	}
	if stats.EventsBySource, err = s.countByColumn(ctx, tenantID, "source"); err != nil {
		return nil, err
	}
	return stats, nil
}
