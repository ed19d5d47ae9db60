// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/testinfra"
)

func TestBus_NATSContainer(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	nats, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	testinfra.CleanupContainer(t, nats)

	bus, err := NewBus(config.EventsConfig{
		Transport:            TransportNATS,
		NATSURL:              nats.URL,
		StreamName:           "HAULBASE_TEST",
		DurableName:          "it",
		RetryMaxRetries:      1,
		RetryInitialInterval: 10 * time.Millisecond,
		CloseTimeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}

	received := make(chan *Event, 1)
	if err := bus.AddHandler("tracking", TopicTrackingPosition, func(_ context.Context, ev *Event) error {
		received <- ev
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	startBus(t, bus)

	if !bus.Healthy() {
		t.Fatal("Healthy() = false with a running NATS server")
	}

	ev := mustEvent(t, TopicTrackingPosition, TrackingPosition{LoadID: "l1", Lat: 41.8, Lon: -87.6})
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		var pos TrackingPosition
		if err := got.Decode(&pos); err != nil {
			t.Fatal(err)
		}
		if pos.LoadID != "l1" {
			t.Errorf("payload = %+v", pos)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("event not delivered over NATS")
	}
}

func TestBus_EmbeddedNATS(t *testing.T) {
	bus, err := NewBus(config.EventsConfig{
		Transport:      TransportNATS,
		EmbeddedServer: true,
		StoreDir:       t.TempDir(),
		CloseTimeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}

	received := make(chan struct{}, 1)
	if err := bus.AddHandler("bids", TopicBidAccepted, func(context.Context, *Event) error {
		received <- struct{}{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	startBus(t, bus)

	if err := bus.Publish(context.Background(), mustEvent(t, TopicBidAccepted, BidAccepted{BidID: "b1"})); err != nil {
		t.Fatal(err)
	}
	select {
	case <-received:
	case <-time.After(15 * time.Second):
		t.Fatal("event not delivered over embedded NATS")
	}
}
