// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps events in memory. Data is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	ids    map[string]struct{}
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events; the oldest
// tenth is dropped when it is full.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, maxLen),
		ids:    make(map[string]struct{}),
		maxLen: maxLen,
	}
}

// Save appends event unless its id is already stored.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[event.ID]; ok {
		return nil
	}
	if len(s.events) >= s.maxLen {
		drop := s.maxLen / 10
		if drop == 0 {
			drop = 1
		}
		for _, e := range s.events[:drop] {
			delete(s.ids, e.ID)
		}
		s.events = s.events[drop:]
	}
	s.events = append(s.events, *event)
	s.ids[event.ID] = struct{}{}
	return nil
}

// Get returns one event of the tenant.
func (s *MemoryStore) Get(_ context.Context, tenantID, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].ID == id && s.events[i].TenantID == tenantID {
			e := s.events[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Query walks the events newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Event{}
	skipped := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		if !matches(&s.events[i], &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, s.events[i])
		if len(results) >= filter.limit() {
			break
		}
	}
	return results, nil
}

func matches(e *Event, f *QueryFilter) bool {
	if e.TenantID != f.TenantID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	if len(f.Types) > 0 {
		for _, t := range f.Types {
			if e.Type == t {
				return true
			}
		}
		return false
	}
	return true
}

// Count returns the number of matching events, ignoring limit and offset.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if matches(&s.events[i], &filter) {
			n++
		}
	}
	return n, nil
}

// Delete removes events older than olderThan.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.Timestamp.Before(olderThan) {
			delete(s.ids, e.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

// Stats summarizes the tenant's events.
func (s *MemoryStore) Stats(_ context.Context, tenantID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		EventsByType:   make(map[string]int64),
		EventsBySource: make(map[string]int64),
	}
	for i := range s.events {
		e := s.events[i]
		if e.TenantID != tenantID {
			continue
		}
		stats.TotalEvents++
		stats.EventsByType[e.Type]++
		stats.EventsBySource[string(e.Source)]++
		if stats.OldestEvent == nil || e.Timestamp.Before(*stats.OldestEvent) {
			t := e.Timestamp
			stats.OldestEvent = &t
		}
		if stats.NewestEvent == nil || e.Timestamp.After(*stats.NewestEvent) {
			t := e.Timestamp
			stats.NewestEvent = &t
		}
	}
	return stats, nil
}
