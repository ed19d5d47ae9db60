// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package events carries domain events between Haulbase components.

Services publish an Event envelope through the Publisher interface. The Bus
delivers it to every handler registered for the topic using Watermill,
either in process (gochannel) or over NATS JetStream with one durable
consumer per handler.

Handlers that keep failing after the retry budget are moved to PoisonTopic
so they never block the topic.

	bus, err := events.NewBus(cfg.Events)
	bus.AddHandler("audit", events.TopicLoadStatusChanged, recorder.Handle)
	go bus.Serve(ctx)
*/
package events
