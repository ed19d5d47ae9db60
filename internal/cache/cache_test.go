// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*Cache, *testClock) {
	clock := &testClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	c := New("test", ttl)
	c.now = clock.Now
	return c, clock
}

func TestCache_GetSet(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute)
	c.Set("key1", "value1")

	v, ok := c.Get("key1")
	if !ok || v != "value1" {
		t.Fatalf("Get(key1) = %v, %v", v, ok)
	}
	if _, ok := c.Get("key2"); ok {
		t.Error("Get(key2) found a value that was never set")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.TotalKeys != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := c.HitRate(); got != 50 {
		t.Errorf("HitRate() = %v, want 50", got)
	}
}

func TestCache_Expiration(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(time.Minute)
	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	clock.Advance(2 * time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry returned")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Errorf("Get(long) = %v, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after lazy expiry, want 1", c.Len())
	}
}

func TestCache_Cleanup(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(time.Minute)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, k)
	}
	c.SetWithTTL("d", "d", time.Hour)
	clock.Advance(time.Minute + time.Second)

	if removed := c.Cleanup(); removed != 3 {
		t.Errorf("Cleanup() = %d, want 3", removed)
	}
	stats := c.GetStats()
	if stats.Evictions != 3 || stats.TotalKeys != 1 || !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute)
	c.Set(TenantKey("acme", "dashboard", 1), 1)
	c.Set(TenantKey("acme", "dashboard", 2), 2)
	c.Set(TenantKey("globex", "dashboard", 1), 3)

	if n := c.DeletePrefix(TenantPrefix("acme")); n != 2 {
		t.Errorf("DeletePrefix(acme) = %d, want 2", n)
	}
	if _, ok := c.Get(TenantKey("globex", "dashboard", 1)); !ok {
		t.Error("other tenant's entry removed")
	}

	c.Delete(TenantKey("globex", "dashboard", 1))
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Delete", c.Len())
	}

	c.Set("x", 1)
	c.Set("y", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	type rng struct{ From, To string }
	a := GenerateKey("dashboard", rng{"2026-01-01", "2026-02-01"})
	b := GenerateKey("dashboard", rng{"2026-01-01", "2026-02-01"})
	c := GenerateKey("dashboard", rng{"2026-01-01", "2026-03-01"})

	if a != b {
		t.Errorf("same params produced %q and %q", a, b)
	}
	if a == c {
		t.Error("different params produced the same key")
	}
	if !strings.HasPrefix(a, "dashboard:") {
		t.Errorf("key %q lacks method prefix", a)
	}
	if k := TenantKey("acme", "dashboard", 1); !strings.HasPrefix(k, TenantPrefix("acme")) {
		t.Errorf("TenantKey %q lacks tenant prefix", k)
	}
}

func TestCache_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	c := New("serve", 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	c.SetWithTTL("gone", 1, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Error("janitor did not remove the expired entry")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if c.String() != "serve-cache-janitor" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := New("concurrent", time.Minute)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				key := GenerateKey("k", []int{n, j % 10})
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 80 {
		t.Errorf("Len() = %d, want 80", c.Len())
	}
}
