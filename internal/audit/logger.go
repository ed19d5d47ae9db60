// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

const writeTimeout = 5 * time.Second

// Logger buffers audit events and writes them to a Store from Serve.
type Logger struct {
	store  Store
	buffer chan *Event
	now    func() time.Time
}

// NewLogger creates a logger with room for bufferSize pending events.
func NewLogger(store Store, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Logger{
		store:  store,
		buffer: make(chan *Event, bufferSize),
		now:    time.Now,
	}
}

// Store returns the backing store.
func (l *Logger) Store() Store {
	return l.store
}

// Log queues event, assigning an id and timestamp when missing. Events are
// dropped when the buffer is full.
func (l *Logger) Log(event *Event) {
	l.fill(event)
	select {
	case l.buffer <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Str("type", event.Type).Msg("audit buffer full, dropping event")
	}
}

func (l *Logger) fill(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
}

// Serve writes queued events until ctx is done, then drains the buffer.
func (l *Logger) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-l.buffer:
					l.write(context.Background(), event)
				default:
					return ctx.Err()
				}
			}
		case event := <-l.buffer:
			l.write(ctx, event)
		}
	}
}

func (l *Logger) String() string { return "audit-writer" }

func (l *Logger) write(ctx context.Context, event *Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := l.save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("failed to save audit event")
	}
}

func (l *Logger) save(ctx context.Context, event *Event) error {
	if err := l.store.Save(ctx, event); err != nil {
		return err
	}
	metrics.AuditEventsRecorded.WithLabelValues(string(event.Source)).Inc()
	return nil
}

// List returns a page of the tenant's events and the total match count.
func (l *Logger) List(ctx context.Context, filter QueryFilter) ([]Event, int64, error) {
	events, err := l.store.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := l.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Stats summarizes the tenant's trail.
func (l *Logger) Stats(ctx context.Context, tenantID string) (*Stats, error) {
	return l.store.Stats(ctx, tenantID)
}
