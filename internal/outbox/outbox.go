// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

const pendingPrefix = "pending:"

// publishTimeout bounds a single retried publish.
const publishTimeout = 10 * time.Second

// ErrClosed is returned after Close.
var ErrClosed = errors.New("outbox is closed")

// Config controls retry pacing.
type Config struct {
	MaxAttempts int
	EntryTTL    time.Duration
	Interval    time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig returns the production retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 20,
		EntryTTL:    24 * time.Hour,
		Interval:    5 * time.Second,
		BaseBackoff: time.Second,
		MaxBackoff:  5 * time.Minute,
	}
}

// Entry is one parked event.
type Entry struct {
	Event         *events.Event `json:"event"`
	CreatedAt     time.Time     `json:"created_at"`
	Attempts      int           `json:"attempts"`
	NextAttemptAt time.Time     `json:"next_attempt_at"`
	LastError     string        `json:"last_error,omitempty"`
}

// Outbox publishes through next and parks events it could not deliver.
type Outbox struct {
	db   *badger.DB
	next events.Publisher
	cfg  Config
	now  func() time.Time

	mu     sync.Mutex // serializes Flush passes
	closed bool
}

// Open opens the outbox at path. An empty path keeps entries in memory,
// which survives a NATS outage but not a restart.
func Open(path string, next events.Publisher, cfg Config) (*Outbox, error) {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = def.EntryTTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = def.MaxBackoff
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	o := &Outbox{db: db, next: next, cfg: cfg, now: time.Now}
	n, err := o.count()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	metrics.OutboxPending.Set(float64(n))
	logging.Info().
		Str("path", path).
		Bool("in_memory", path == "").
		Int("pending", n).
		Msg("Event outbox opened")
	return o, nil
}

// Publish hands ev to the wrapped publisher. On failure the event is stored
// for retry and Publish returns nil; an error means the event is lost.
func (o *Outbox) Publish(ctx context.Context, ev *events.Event) error {
	err := o.next.Publish(ctx, ev)
	if err == nil {
		return nil
	}
	if errors.Is(err, events.ErrMissingTenant) {
		return err
	}
	if serr := o.store(ev, err); serr != nil {
		return fmt.Errorf("publish failed (%v) and outbox store failed: %w", err, serr)
	}
	logging.Ctx(ctx).Warn().Err(err).
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Msg("Event publish failed, parked in outbox")
	return nil
}

func (o *Outbox) store(ev *events.Event, cause error) error {
	now := o.now()
	entry := &Entry{
		Event:         ev,
		CreatedAt:     now,
		NextAttemptAt: now.Add(o.backoff(0)),
		LastError:     cause.Error(),
	}
	if err := o.put(entry); err != nil {
		return err
	}
	metrics.OutboxResults.WithLabelValues("stored").Inc()
	metrics.OutboxPending.Inc()
	return nil
}

func (o *Outbox) put(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode outbox entry: %w", err)
	}
	err = o.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(pendingPrefix+entry.Event.ID), data)
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}

func (o *Outbox) delete(id string) error {
	return o.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(pendingPrefix + id))
	})
}

// Pending returns every parked entry in key order.
func (o *Outbox) Pending() ([]*Entry, error) {
	var entries []*Entry
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode outbox entry %s: %w", it.Item().Key(), err)
				}
				entries = append(entries, &e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// PendingCount returns the number of parked entries.
func (o *Outbox) PendingCount() (int, error) {
	return o.count()
}

func (o *Outbox) count() (int, error) {
	n := 0
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// backoff returns the delay after attempts failed retries: BaseBackoff
// doubled once per retry, capped at MaxBackoff.
func (o *Outbox) backoff(attempts int) time.Duration {
	d := o.cfg.BaseBackoff
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= o.cfg.MaxBackoff {
			return o.cfg.MaxBackoff
		}
	}
	return d
}

// FlushResult counts the outcomes of one Flush pass.
type FlushResult struct {
	Delivered int
	Retrying  int
	Dropped   int
	Waiting   int
}

// Flush makes one retry pass over the due entries.
func (o *Outbox) Flush(ctx context.Context) (FlushResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var res FlushResult
	entries, err := o.Pending()
	if err != nil {
		return res, err
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		now := o.now()

		if now.Sub(e.CreatedAt) > o.cfg.EntryTTL {
			o.drop(ctx, e, "expired")
			res.Dropped++
			continue
		}
		if now.Before(e.NextAttemptAt) {
			res.Waiting++
			continue
		}

		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := o.next.Publish(pctx, e.Event)
		cancel()

		if err == nil {
			if derr := o.delete(e.Event.ID); derr != nil {
				return res, fmt.Errorf("delete delivered entry: %w", derr)
			}
			metrics.OutboxResults.WithLabelValues("delivered").Inc()
			res.Delivered++
			continue
		}

		e.Attempts++
		e.LastError = err.Error()
		if e.Attempts >= o.cfg.MaxAttempts {
			o.drop(ctx, e, "max attempts reached")
			res.Dropped++
			continue
		}
		e.NextAttemptAt = now.Add(o.backoff(e.Attempts))
		if perr := o.put(e); perr != nil {
			return res, fmt.Errorf("update outbox entry: %w", perr)
		}
		metrics.OutboxResults.WithLabelValues("retry").Inc()
		res.Retrying++
	}

	if n, err := o.count(); err == nil {
		metrics.OutboxPending.Set(float64(n))
	}
	return res, nil
}

func (o *Outbox) drop(ctx context.Context, e *Entry, reason string) {
	if err := o.delete(e.Event.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event_id", e.Event.ID).Msg("Failed to drop outbox entry")
		return
	}
	metrics.OutboxResults.WithLabelValues("dropped").Inc()
	logging.Ctx(ctx).Error().
		Str("event_id", e.Event.ID).
		Str("topic", e.Event.Topic).
		Str("tenant_id", e.Event.TenantID).
		Int("attempts", e.Attempts).
		Str("last_error", e.LastError).
		Str("reason", reason).
		Msg("Dropping undeliverable event")
}

// Serve runs Flush every Interval until ctx is done.
func (o *Outbox) Serve(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			res, err := o.Flush(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn().Err(err).Msg("Outbox flush failed")
				continue
			}
			if res.Delivered > 0 || res.Dropped > 0 {
				logging.Info().
					Int("delivered", res.Delivered).
					Int("dropped", res.Dropped).
					Int("retrying", res.Retrying).
					Msg("Outbox flush")
			}
		}
	}
}

func (o *Outbox) String() string { return "event-outbox" }

// Close closes the underlying store. Entries on disk survive for the next
// Open.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.db.Close()
}
