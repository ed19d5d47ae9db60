// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/haulbase/internal/logging"
)

// LockoutConfig holds the login lockout policy.
type LockoutConfig struct {
	MaxAttempts        int
	LockoutDuration    time.Duration
	MaxLockoutDuration time.Duration
	// EntryTTL is how long an unlocked entry is kept after its last failure.
	EntryTTL time.Duration
}

// DefaultLockoutConfig locks after 5 failures for 15 minutes, doubling up to a day.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		EntryTTL:           24 * time.Hour,
	}
}

type lockoutEntry struct {
	failures    int
	lockouts    int
	lastFailure time.Time
	lockedUntil time.Time
}

// Lockout tracks failed logins per subject. Subjects are usernames and
// "ip:<addr>" keys.
type Lockout struct {
	cfg     LockoutConfig
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

// NewLockout returns an in-memory lockout tracker.
func NewLockout(cfg LockoutConfig) *Lockout {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultLockoutConfig()
	}
	return &Lockout{cfg: cfg, now: time.Now, entries: make(map[string]*lockoutEntry)}
}

// Check returns the remaining lock time for any of the subjects, or zero.
func (l *Lockout) Check(subjects ...string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var longest time.Duration
	for _, s := range subjects {
		if e, ok := l.entries[s]; ok && now.Before(e.lockedUntil) {
			longest = max(longest, e.lockedUntil.Sub(now))
		}
	}
	return longest
}

// Failure records a failed attempt for each subject and returns the lock
// duration if any of them just crossed the threshold.
func (l *Lockout) Failure(subjects ...string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var locked time.Duration
	for _, s := range subjects {
		e, ok := l.entries[s]
		if !ok {
			e = &lockoutEntry{}
			l.entries[s] = e
		}
		if now.Before(e.lockedUntil) {
			continue
		}
		e.failures++
		e.lastFailure = now
		if e.failures < l.cfg.MaxAttempts {
			continue
		}

		d := l.cfg.LockoutDuration << min(e.lockouts, 16)
		if d > l.cfg.MaxLockoutDuration || d <= 0 {
			d = l.cfg.MaxLockoutDuration
		}
		e.lockedUntil = now.Add(d)
		e.lockouts++
		e.failures = 0
		locked = max(locked, d)

		logging.Warn().
			Str("subject", s).
			Dur("duration", d).
			Int("lockout_count", e.lockouts).
			Msg("Login locked")
	}
	return locked
}

// Success clears the username's history. IP entries are left to expire.
func (l *Lockout) Success(username string) {
	l.mu.Lock()
	delete(l.entries, username)
	l.mu.Unlock()
}

// Cleanup drops unlocked entries idle for longer than EntryTTL.
func (l *Lockout) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	threshold := now.Add(-l.cfg.EntryTTL)
	removed := 0
	for s, e := range l.entries {
		if now.Before(e.lockedUntil) || e.lastFailure.After(threshold) {
			continue
		}
		delete(l.entries, s)
		removed++
	}
	return removed
}

// Serve runs Cleanup on interval until ctx ends. It satisfies suture.Service.
func (l *Lockout) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				logging.Debug().Int("count", n).Msg("Cleaned up expired lockout entries")
			}
		}
	}
}

func (l *Lockout) String() string {
	return "auth-lockout-janitor"
}
