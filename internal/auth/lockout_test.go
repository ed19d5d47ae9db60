// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLockout(maxAttempts int) (*Lockout, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	l := NewLockout(LockoutConfig{
		MaxAttempts:        maxAttempts,
		LockoutDuration:    10 * time.Minute,
		MaxLockoutDuration: 30 * time.Minute,
		EntryTTL:           time.Hour,
	})
	l.now = clock.Now
	return l, clock
}

func TestLockout_LocksAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	l, _ := newTestLockout(3)
	for i := 0; i < 2; i++ {
		if d := l.Failure("dana"); d != 0 {
			t.Fatalf("attempt %d locked for %v", i+1, d)
		}
	}
	if d := l.Failure("dana"); d != 10*time.Minute {
		t.Fatalf("third failure lock = %v, want 10m", d)
	}
	if d := l.Check("dana"); d != 10*time.Minute {
		t.Errorf("Check = %v, want 10m", d)
	}
	if d := l.Check("sam"); d != 0 {
		t.Errorf("unrelated subject locked for %v", d)
	}
}

func TestLockout_ExponentialBackoffIsCapped(t *testing.T) {
	t.Parallel()

	l, clock := newTestLockout(1)
	want := []time.Duration{10 * time.Minute, 20 * time.Minute, 30 * time.Minute, 30 * time.Minute}
	for i, w := range want {
		if d := l.Failure("dana"); d != w {
			t.Fatalf("lockout %d = %v, want %v", i+1, d, w)
		}
		clock.Advance(w + time.Second)
	}
}

func TestLockout_FailuresWhileLockedAreIgnored(t *testing.T) {
	t.Parallel()

	l, clock := newTestLockout(2)
	l.Failure("dana")
	l.Failure("dana")
	clock.Advance(time.Minute)
	if d := l.Failure("dana"); d != 0 {
		t.Errorf("failure during lock returned %v", d)
	}
	if d := l.Check("dana"); d != 9*time.Minute {
		t.Errorf("remaining = %v, want 9m", d)
	}
}

func TestLockout_SuccessClearsUsername(t *testing.T) {
	t.Parallel()

	l, _ := newTestLockout(3)
	l.Failure("dana", "ip:10.0.0.1")
	l.Failure("dana", "ip:10.0.0.1")
	l.Success("dana")
	l.Failure("dana", "ip:10.0.0.1")

	if d := l.Check("dana"); d != 0 {
		t.Errorf("username locked after success reset: %v", d)
	}
	if d := l.Check("ip:10.0.0.1"); d != 10*time.Minute {
		t.Errorf("ip lock = %v, want 10m", d)
	}
}

func TestLockout_Cleanup(t *testing.T) {
	t.Parallel()

	l, clock := newTestLockout(2)
	l.Failure("idle")
	l.Failure("locked")
	l.Failure("locked")

	clock.Advance(2 * time.Minute)
	l.Failure("recent")

	clock.Advance(59 * time.Minute)
	if n := l.Cleanup(); n != 2 {
		t.Fatalf("Cleanup removed %d, want 2 (idle and expired lock)", n)
	}
	if _, ok := l.entries["recent"]; !ok {
		t.Error("recent entry was removed")
	}
}
