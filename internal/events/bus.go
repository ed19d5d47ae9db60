// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

// Transports.
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// PoisonTopic receives messages whose handler kept failing after retries.
const PoisonTopic = "events.poison"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus is closed")

// HandlerFunc consumes one event. Returning an error triggers a retry.
type HandlerFunc func(ctx context.Context, ev *Event) error

type registration struct {
	name    string
	topic   string
	handler HandlerFunc
	sub     message.Subscriber
}

// Bus publishes domain events and fans them out to named handlers. Every
// handler receives every event on its topic.
type Bus struct {
	cfg       config.EventsConfig
	transport string
	logger    watermill.LoggerAdapter

	publisher     message.Publisher
	newSubscriber func(handler string) (message.Subscriber, error)
	healthy       func() bool
	closers       []func() error

	mu       sync.Mutex
	handlers []*registration
	running  chan struct{}
	closed   bool
}

// NewBus builds the bus for cfg.Transport. The NATS transport optionally
// starts an embedded server and makes sure the stream exists.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	b := &Bus{
		cfg:       cfg,
		transport: cfg.Transport,
		logger:    logging.NewWatermillLogger(),
		running:   make(chan struct{}),
	}
	if b.transport == "" {
		b.transport = TransportMemory
	}

	switch b.transport {
	case TransportMemory:
		pubsub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, b.logger)
		b.publisher = pubsub
		b.newSubscriber = func(string) (message.Subscriber, error) { return pubsub, nil }
		b.healthy = func() bool { return true }
		b.closers = append(b.closers, pubsub.Close)
	case TransportNATS:
		if err := b.setupNATS(); err != nil {
			b.closeAll()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
	return b, nil
}

// Transport reports the active transport name.
func (b *Bus) Transport() string { return b.transport }

// Healthy reports whether the transport can currently deliver messages.
func (b *Bus) Healthy() bool {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	return !closed && b.healthy()
}

// Publish sends ev to its topic. The correlation id on ctx travels with it.
func (b *Bus) Publish(ctx context.Context, ev *Event) error {
	if ev.TenantID == "" {
		return ErrMissingTenant
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	msg, err := toMessage(ev, logging.CorrelationIDFromContext(ctx))
	if err != nil {
		return err
	}
	if err := b.publisher.Publish(ev.Topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Topic, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Topic).Inc()
	return nil
}

// AddHandler registers a named consumer for topic. Handlers added after
// Serve has started take effect on the next restart.
func (b *Bus) AddHandler(name, topic string, h HandlerFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.handlers {
		if r.name == name {
			return fmt.Errorf("event handler %q already registered", name)
		}
	}
	sub, err := b.newSubscriber(name)
	if err != nil {
		return fmt.Errorf("subscriber for %s: %w", name, err)
	}
	b.handlers = append(b.handlers, &registration{name: name, topic: topic, handler: h, sub: sub})
	return nil
}

// Running is closed once the first router has subscribed every handler.
func (b *Bus) Running() <-chan struct{} { return b.running }

// Serve runs the router until ctx is cancelled. A fresh router is built on
// every call so a supervisor can restart it.
func (b *Bus) Serve(ctx context.Context) error {
	router, err := b.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			b.markRunning()
		case <-ctx.Done():
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = router.Close()
		case <-done:
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}
	return errors.New("event router stopped")
}

// String names the bus for supervisor logs.
func (b *Bus) String() string { return "event-bus" }

func (b *Bus) markRunning() {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.running:
	default:
		close(b.running)
	}
}

func (b *Bus) newRouter() (*message.Router, error) {
	closeTimeout := b.cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	poison, err := middleware.PoisonQueue(b.publisher, PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("poison queue: %w", err)
	}
	initial := b.cfg.RetryInitialInterval
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	retry := middleware.Retry{
		MaxRetries:      b.cfg.RetryMaxRetries,
		InitialInterval: initial,
		MaxInterval:     10 * initial,
		Multiplier:      2,
		Logger:          b.logger,
	}
	router.AddMiddleware(poison, middleware.Recoverer, retry.Middleware)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.handlers {
		router.AddConsumerHandler(r.name, r.topic, keepOpen{r.sub}, b.consume(r))
	}
	return router, nil
}

// consume adapts a HandlerFunc to watermill, restoring the tenant and
// correlation id on the handler context.
func (b *Bus) consume(r *registration) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		start := time.Now()
		ev, err := fromMessage(msg)
		if err != nil {
			// Undecodable payloads go straight to the poison topic.
			metrics.RecordEventHandled(r.name, time.Since(start), err)
			return err
		}

		ctx := logging.ContextWithTenantID(msg.Context(), ev.TenantID)
		if id := msg.Metadata.Get(MetaCorrelationID); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}

		err = r.handler(ctx, ev)
		metrics.RecordEventHandled(r.name, time.Since(start), err)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("handler", r.name).
				Str("topic", ev.Topic).
				Str("event_id", ev.ID).
				Msg("event handler failed")
		}
		return err
	}
}

// Close stops publishing and releases the transport.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.closeAll()
}

func (b *Bus) closeAll() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// keepOpen stops the router from closing a subscriber it does not own.
type keepOpen struct {
	message.Subscriber
}

func (keepOpen) Close() error { return nil }
