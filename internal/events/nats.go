// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

const publishBreakerName = "nats-publish"

// setupNATS connects the bus to NATS JetStream: an embedded server when
// configured, a control connection for stream setup and health, one
// publisher and one durable subscriber per handler.
func (b *Bus) setupNATS() error {
	url := b.cfg.NATSURL
	if b.cfg.EmbeddedServer {
		srv, err := startEmbeddedServer(b.cfg.StoreDir)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, srv.Shutdown)
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}
	if url == "" {
		return errors.New("events.nats_url is required for the nats transport")
	}

	opts := natsOptions(b.logger)
	nc, err := natsgo.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("connect NATS %s: %w", url, err)
	}
	b.closers = append(b.closers, func() error { nc.Close(); return nil })
	b.healthy = nc.IsConnected

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureStream(ctx, js, b.streamName()); err != nil {
		return err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, b.logger)
	if err != nil {
		return fmt.Errorf("create NATS publisher: %w", err)
	}
	b.closers = append(b.closers, pub.Close)
	b.publisher = &breakerPublisher{Publisher: pub, breaker: newPublishBreaker()}

	b.newSubscriber = func(handler string) (message.Subscriber, error) {
		durable := b.durableName() + "-" + handler
		sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
			URL:              url,
			QueueGroupPrefix: durable,
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     b.cfg.CloseTimeout,
			NatsOptions:      opts,
			Unmarshaler:      &wmNats.NATSMarshaler{},
			JetStream: wmNats.JetStreamConfig{
				AutoProvision: false,
				AckAsync:      false,
				SubscribeOptions: []natsgo.SubOpt{
					natsgo.DeliverNew(),
					natsgo.AckExplicit(),
					natsgo.MaxDeliver(10),
					natsgo.BindStream(b.streamName()),
				},
				DurablePrefix: durable,
			},
		}, b.logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, sub.Close)
		return sub, nil
	}
	return nil
}

func (b *Bus) streamName() string {
	if b.cfg.StreamName != "" {
		return b.cfg.StreamName
	}
	return "HAULBASE"
}

func (b *Bus) durableName() string {
	if b.cfg.DurableName != "" {
		return b.cfg.DurableName
	}
	return "haulbase"
}

func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("haulbase"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// ensureStream creates the event stream or updates it in place.
func ensureStream(ctx context.Context, js jetstream.JetStream, name string) error {
	cfg := jetstream.StreamConfig{
		Name:       name,
		Subjects:   append(Topics(), PoisonTopic),
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := js.Stream(ctx, name)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("update stream %s: %w", name, err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", name, err)
		}
	default:
		return fmt.Errorf("check stream %s: %w", name, err)
	}
	return nil
}

// breakerPublisher fails fast while NATS is unreachable.
type breakerPublisher struct {
	message.Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func newPublishBreaker() *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(publishBreakerName).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        publishBreakerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}

func (p *breakerPublisher) Publish(topic string, msgs ...*message.Message) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.Publisher.Publish(topic, msgs...)
	})
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(publishBreakerName, result).Inc()
	return err
}
