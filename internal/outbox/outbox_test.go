// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/events"
)

var errDown = errors.New("nats: no servers available")

// flakyPublisher fails while down is set and records delivered events.
type flakyPublisher struct {
	mu        sync.Mutex
	down      bool
	delivered []*events.Event
}

func (p *flakyPublisher) Publish(_ context.Context, ev *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.delivered = append(p.delivered, ev)
	return nil
}

func (p *flakyPublisher) setDown(down bool) {
	p.mu.Lock()
	p.down = down
	p.mu.Unlock()
}

func (p *flakyPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.delivered)
}

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestOutbox(t *testing.T, next events.Publisher, cfg Config) (*Outbox, *fakeClock) {
	t.Helper()
	o, err := Open("", next, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	clock := &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	o.now = clock.now
	return o, clock
}

func testEvent(t *testing.T, entityID string) *events.Event {
	t.Helper()
	ev, err := events.New(events.TopicLoadStatusChanged, "acme", "load", entityID, "dispatcher",
		events.LoadStatusChanged{LoadID: entityID, From: "posted", To: "booked"})
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}
	return ev
}

func TestPublish_PassThrough(t *testing.T) {
	t.Parallel()
	pub := &flakyPublisher{}
	o, _ := newTestOutbox(t, pub, Config{})

	if err := o.Publish(context.Background(), testEvent(t, "L1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("delivered = %d, want 1", pub.count())
	}
	pending, err := o.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestPublish_ParksAndRedelivers(t *testing.T) {
	t.Parallel()
	pub := &flakyPublisher{down: true}
	o, clock := newTestOutbox(t, pub, Config{BaseBackoff: time.Second, MaxBackoff: time.Minute})
	ctx := context.Background()

	ev := testEvent(t, "L2")
	if err := o.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish returned %v, want the event parked", err)
	}
	pending, err := o.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Event.ID != ev.ID {
		t.Fatalf("pending = %+v, want %s", pending, ev.ID)
	}
	if pending[0].LastError != errDown.Error() {
		t.Errorf("LastError = %q", pending[0].LastError)
	}

	res, err := o.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if res.Waiting != 1 {
		t.Errorf("Flush before backoff = %+v, want 1 waiting", res)
	}

	clock.advance(2 * time.Second)
	res, _ = o.Flush(ctx)
	if res.Retrying != 1 {
		t.Errorf("Flush while down = %+v, want 1 retrying", res)
	}

	pub.setDown(false)
	clock.advance(time.Minute)
	res, err = o.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if res.Delivered != 1 {
		t.Fatalf("Flush after recovery = %+v, want 1 delivered", res)
	}
	if pub.delivered[0].ID != ev.ID {
		t.Errorf("redelivered id = %s, want %s", pub.delivered[0].ID, ev.ID)
	}
	if pending, _ := o.Pending(); len(pending) != 0 {
		t.Errorf("pending after delivery = %d, want 0", len(pending))
	}
}

func TestPublish_MissingTenantNotParked(t *testing.T) {
	t.Parallel()
	o, _ := newTestOutbox(t, publisherFunc(func(context.Context, *events.Event) error {
		return events.ErrMissingTenant
	}), Config{})

	err := o.Publish(context.Background(), &events.Event{ID: "e1", Topic: events.TopicBidPlaced})
	if !errors.Is(err, events.ErrMissingTenant) {
		t.Errorf("Publish = %v, want ErrMissingTenant", err)
	}
	if pending, _ := o.Pending(); len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

type publisherFunc func(context.Context, *events.Event) error

func (f publisherFunc) Publish(ctx context.Context, ev *events.Event) error { return f(ctx, ev) }

func TestFlush_DropsAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	pub := &flakyPublisher{down: true}
	o, clock := newTestOutbox(t, pub, Config{MaxAttempts: 3, BaseBackoff: time.Second, MaxBackoff: time.Second})
	ctx := context.Background()

	_ = o.Publish(ctx, testEvent(t, "L3"))
	var dropped int
	for i := 0; i < 5; i++ {
		clock.advance(2 * time.Second)
		res, err := o.Flush(ctx)
		if err != nil {
			t.Fatalf("Flush: %v", err)
		}
		dropped += res.Dropped
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if pending, _ := o.Pending(); len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestFlush_DropsExpired(t *testing.T) {
	t.Parallel()
	pub := &flakyPublisher{down: true}
	o, clock := newTestOutbox(t, pub, Config{EntryTTL: time.Hour})
	ctx := context.Background()

	_ = o.Publish(ctx, testEvent(t, "L4"))
	pub.setDown(false)
	clock.advance(2 * time.Hour)

	res, err := o.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if res.Dropped != 1 || res.Delivered != 0 {
		t.Errorf("Flush = %+v, want the expired entry dropped", res)
	}
	if pub.count() != 0 {
		t.Errorf("expired entry was delivered")
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()
	o := &Outbox{cfg: Config{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}}

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{30, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := o.backoff(tt.attempts); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestFlush_BackoffDoublesPerRetry(t *testing.T) {
	t.Parallel()
	pub := &flakyPublisher{down: true}
	o, clock := newTestOutbox(t, pub, Config{BaseBackoff: time.Second, MaxBackoff: time.Minute})
	ctx := context.Background()

	_ = o.Publish(ctx, testEvent(t, "L6"))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, delay := range want {
		pending, err := o.Pending()
		if err != nil {
			t.Fatalf("Pending: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("pending = %d, want 1", len(pending))
		}
		if got := pending[0].NextAttemptAt.Sub(clock.now()); got != delay {
			t.Fatalf("wait after %d retries = %v, want %v", i, got, delay)
		}
		clock.advance(delay)
		if _, err := o.Flush(ctx); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
}

func TestOpen_PersistsAcrossRestart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	pub := &flakyPublisher{down: true}

	o, err := Open(dir, pub, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ev := testEvent(t, "L5")
	if err := o.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir, pub, Config{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Event.ID != ev.ID || pending[0].Event.TenantID != "acme" {
		t.Errorf("pending after restart = %+v", pending)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()
	o, _ := newTestOutbox(t, &flakyPublisher{}, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if o.String() != "event-outbox" {
		t.Errorf("String() = %q", o.String())
	}
}
