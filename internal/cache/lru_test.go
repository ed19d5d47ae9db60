// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package cache

import (
	"testing"
	"time"
)

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := NewLRU[int]("lru-test", 3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch a so b becomes least recently used.
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_UpdateAndTTL(t *testing.T) {
	t.Parallel()

	clock := &testClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	c := NewLRU[string]("lru-ttl", 10, time.Minute)
	c.now = clock.Now

	c.Add("dot:123", "first")
	c.Add("dot:123", "second")
	if v, ok := c.Get("dot:123"); !ok || v != "second" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	clock.Advance(61 * time.Second)
	if _, ok := c.Get("dot:123"); ok {
		t.Error("expired entry returned")
	}

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 0 {
		t.Errorf("Stats() = %d, %d, %d", hits, misses, size)
	}
}

func TestLRU_RemoveAndPurge(t *testing.T) {
	t.Parallel()

	c := NewLRU[int]("lru-purge", 0, 0)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove should report presence exactly once")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge", c.Len())
	}
	c.Add("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Purge")
	}
}
