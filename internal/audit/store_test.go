// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

func newDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewDuckDBStore(db)
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return store
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s Store) {
	t.Helper()
	entries := []Event{
		{ID: "e1", TenantID: "acme", Timestamp: base, Source: SourceEvent, Type: "load.status_changed",
			EntityType: "load", EntityID: "L1", Actor: "dispatch", Metadata: []byte(`{"to":"posted"}`)},
		{ID: "e2", TenantID: "acme", Timestamp: base.Add(time.Minute), Source: SourceAPI, Type: TypeAPIRequest,
			EntityType: "load", EntityID: "L1", Actor: "dispatch", StatusCode: 200},
		{ID: "e3", TenantID: "acme", Timestamp: base.Add(2 * time.Minute), Source: SourceEvent, Type: "bid.placed",
			EntityType: "bid", EntityID: "B1", Actor: "carrier"},
		{ID: "e4", TenantID: "globex", Timestamp: base.Add(3 * time.Minute), Source: SourceAPI, Type: TypeAPIRequest,
			EntityType: "load", EntityID: "L1", Actor: "other"},
	}
	for i := range entries {
		entries[i].Action = "test"
		entries[i].Outcome = OutcomeSuccess
		entries[i].Description = "seeded"
		if err := s.Save(context.Background(), &entries[i]); err != nil {
			t.Fatalf("Save(%s): %v", entries[i].ID, err)
		}
	}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(0),
		"duckdb": newDuckDBStore(t),
	}
}

func TestStore_Query(t *testing.T) {
	t.Parallel()

	since := base.Add(90 * time.Second)
	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{"tenant newest first", QueryFilter{TenantID: "acme"}, []string{"e3", "e2", "e1"}},
		{"entity", QueryFilter{TenantID: "acme", EntityType: "load", EntityID: "L1"}, []string{"e2", "e1"}},
		{"types", QueryFilter{TenantID: "acme", Types: []string{"bid.placed", TypeAPIRequest}}, []string{"e3", "e2"}},
		{"actor", QueryFilter{TenantID: "acme", Actor: "carrier"}, []string{"e3"}},
		{"since", QueryFilter{TenantID: "acme", Since: &since}, []string{"e3"}},
		{"limit and offset", QueryFilter{TenantID: "acme", Limit: 1, Offset: 1}, []string{"e2"}},
		{"other tenant", QueryFilter{TenantID: "globex"}, []string{"e4"}},
		{"unknown tenant", QueryFilter{TenantID: "nobody"}, []string{}},
	}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, store)
			for _, tt := range tests {
				got, err := store.Query(context.Background(), tt.filter)
				if err != nil {
					t.Fatalf("%s: Query: %v", tt.name, err)
				}
				if !equal(ids(got), tt.want) {
					t.Errorf("%s: got %v, want %v", tt.name, ids(got), tt.want)
				}
			}

			n, err := store.Count(context.Background(), QueryFilter{TenantID: "acme", Limit: 1})
			if err != nil || n != 3 {
				t.Errorf("Count = %d, %v; want 3", n, err)
			}
		})
	}
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, store)
			dup := Event{ID: "e1", TenantID: "acme", Timestamp: base, Source: SourceEvent, Type: "other",
				Action: "x", Outcome: OutcomeSuccess, Actor: "x", Description: "dup"}
			if err := store.Save(context.Background(), &dup); err != nil {
				t.Fatalf("Save duplicate: %v", err)
			}
			got, err := store.Get(context.Background(), "acme", "e1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Type != "load.status_changed" {
				t.Errorf("duplicate overwrote the stored event: %+v", got)
			}
			if string(got.Metadata) != `{"to":"posted"}` {
				t.Errorf("metadata = %s", got.Metadata)
			}
		})
	}
}

func TestStore_GetIsTenantScoped(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, store)
			if _, err := store.Get(context.Background(), "globex", "e1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get across tenants = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_DeleteAndStats(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, store)
			ctx := context.Background()

			stats, err := store.Stats(ctx, "acme")
			if err != nil {
				t.Fatal(err)
			}
			if stats.TotalEvents != 3 || stats.EventsBySource["event"] != 2 || stats.EventsByType[TypeAPIRequest] != 1 {
				t.Errorf("stats = %+v", stats)
			}
			if stats.OldestEvent == nil || !stats.OldestEvent.Equal(base) {
				t.Errorf("oldest = %v, want %v", stats.OldestEvent, base)
			}

			n, err := store.Delete(ctx, base.Add(90*time.Second))
			if err != nil {
				t.Fatal(err)
			}
			if n != 2 {
				t.Errorf("Delete removed %d, want 2", n)
			}
			remaining, _ := store.Count(ctx, QueryFilter{TenantID: "acme"})
			if remaining != 1 {
				t.Errorf("remaining = %d, want 1", remaining)
			}
		})
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	for i := 0; i < 11; i++ {
		e := Event{ID: string(rune('a' + i)), TenantID: "acme", Timestamp: base.Add(time.Duration(i) * time.Second)}
		if err := store.Save(context.Background(), &e); err != nil {
			t.Fatal(err)
		}
	}
	n, _ := store.Count(context.Background(), QueryFilter{TenantID: "acme"})
	if n != 10 {
		t.Errorf("Count = %d, want 10", n)
	}
	if _, err := store.Get(context.Background(), "acme", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest event still present: %v", err)
	}
}
