// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package loadboard

import (
	"context"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
	"github.com/tomtom215/haulbase/internal/models"
)

// Store is the part of the database the load board writes through.
type Store interface {
	ListBoard(ctx context.Context, tenantID string, f database.LoadFilter, page models.Page) ([]models.BoardEntry, int64, error)
	PlaceBid(ctx context.Context, tenantID, loadID string, req models.BidRequest) (*models.Bid, bool, error)
	ListBids(ctx context.Context, tenantID, loadID string) ([]models.Bid, error)
	AcceptBid(ctx context.Context, tenantID, bidID, actor string) (*database.BidAcceptance, error)
	WithdrawBid(ctx context.Context, tenantID, bidID string) (*models.Bid, error)
	TransitionLoad(ctx context.Context, tenantID, id, to, actor, note string) (*models.Load, *models.LoadStatusChange, error)
	RecordPosition(ctx context.Context, tenantID, loadID string, req models.PositionRequest) (*database.PositionResult, error)
}

// Service runs the load lifecycle operations that other components react
// to. Every committed change is published on the event bus.
type Service struct {
	store  Store
	events events.Publisher
}

// NewService creates a load board service. A nil publisher discards events.
func NewService(store Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{store: store, events: pub}
}

// Board lists posted loads with their bid summary.
func (s *Service) Board(ctx context.Context, tenantID string, f database.LoadFilter, page models.Page) ([]models.BoardEntry, int64, error) {
	return s.store.ListBoard(ctx, tenantID, f, page)
}

// Bids lists the bids on a load, cheapest first.
func (s *Service) Bids(ctx context.Context, tenantID, loadID string) ([]models.Bid, error) {
	return s.store.ListBids(ctx, tenantID, loadID)
}

// PlaceBid places or replaces the carrier's open bid on a posted load.
func (s *Service) PlaceBid(ctx context.Context, tenantID, actor, loadID string, req models.BidRequest) (*models.Bid, bool, error) {
	bid, replaced, err := s.store.PlaceBid(ctx, tenantID, loadID, req)
	if err != nil {
		return nil, false, err
	}
	metrics.BidsPlaced.Inc()

	s.publish(ctx, events.TopicBidPlaced, tenantID, "bid", bid.ID, actor, events.BidPlaced{
		BidID:       bid.ID,
		LoadID:      bid.LoadID,
		CarrierID:   bid.CarrierID,
		AmountCents: bid.AmountCents,
		Replaced:    replaced,
	})
	return bid, replaced, nil
}

// AcceptBid books the load to the bid's carrier and rejects competing bids.
func (s *Service) AcceptBid(ctx context.Context, tenantID, actor, bidID string) (*database.BidAcceptance, error) {
	acc, err := s.store.AcceptBid(ctx, tenantID, bidID, actor)
	if err != nil {
		return nil, err
	}
	metrics.BidsAccepted.Inc()

	s.publish(ctx, events.TopicBidAccepted, tenantID, "bid", acc.Bid.ID, actor, events.BidAccepted{
		BidID:         acc.Bid.ID,
		LoadID:        acc.Load.ID,
		CarrierID:     acc.Bid.CarrierID,
		AmountCents:   acc.Bid.AmountCents,
		RejectedCount: acc.Rejected,
	})
	s.statusChanged(ctx, tenantID, actor, acc.Load, acc.Change)
	return acc, nil
}

// WithdrawBid withdraws an open bid.
func (s *Service) WithdrawBid(ctx context.Context, tenantID, bidID string) (*models.Bid, error) {
	return s.store.WithdrawBid(ctx, tenantID, bidID)
}

// TransitionLoad moves a load through its status machine.
func (s *Service) TransitionLoad(ctx context.Context, tenantID, actor, loadID, to, note string) (*models.Load, error) {
	load, change, err := s.store.TransitionLoad(ctx, tenantID, loadID, to, actor, note)
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, tenantID, actor, load, change)
	return load, nil
}

// RecordPosition ingests a ping. The first ping on a booked load also
// publishes the move to in_transit.
func (s *Service) RecordPosition(ctx context.Context, tenantID, actor, loadID string, req models.PositionRequest) (*database.PositionResult, error) {
	res, err := s.store.RecordPosition(ctx, tenantID, loadID, req)
	if err != nil {
		return nil, err
	}
	p := res.Position
	metrics.TrackingPings.WithLabelValues(p.Source).Inc()

	s.publish(ctx, events.TopicTrackingPosition, tenantID, "load", loadID, actor, events.TrackingPosition{
		LoadID:     loadID,
		Lat:        p.Lat,
		Lon:        p.Lon,
		SpeedMph:   p.SpeedMph,
		Heading:    p.Heading,
		Source:     p.Source,
		RecordedAt: p.RecordedAt,
	})
	if res.Change != nil {
		s.statusChanged(ctx, tenantID, database.TrackingActor, res.Load, res.Change)
	}
	return res, nil
}

func (s *Service) statusChanged(ctx context.Context, tenantID, actor string, load *models.Load, change *models.LoadStatusChange) {
	if change == nil {
		return
	}
	metrics.LoadTransitions.WithLabelValues(change.FromStatus, change.ToStatus).Inc()

	payload := events.LoadStatusChanged{
		LoadID:    load.ID,
		Reference: load.Reference,
		From:      change.FromStatus,
		To:        change.ToStatus,
		Note:      change.Note,
	}
	if load.CarrierID != nil {
		payload.CarrierID = *load.CarrierID
	}
	s.publish(ctx, events.TopicLoadStatusChanged, tenantID, "load", load.ID, actor, payload)
}

// publish logs rather than fails: the change is already committed.
func (s *Service) publish(ctx context.Context, topic, tenantID, entityType, entityID, actor string, payload any) {
	ev, err := events.New(topic, tenantID, entityType, entityID, actor, payload)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("topic", topic).
			Str("entity_id", entityID).
			Msg("Failed to publish event")
	}
}
