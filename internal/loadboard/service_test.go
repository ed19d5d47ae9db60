// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package loadboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Topic
	}
	return out
}

// fakeStore returns canned results; err short-circuits every call.
type fakeStore struct {
	err      error
	replaced bool
	position *database.PositionResult
}

func (f *fakeStore) ListBoard(context.Context, string, database.LoadFilter, models.Page) ([]models.BoardEntry, int64, error) {
	return nil, 0, f.err
}

func (f *fakeStore) PlaceBid(_ context.Context, tenantID, loadID string, req models.BidRequest) (*models.Bid, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.Bid{ID: "bid-1", TenantID: tenantID, LoadID: loadID, CarrierID: req.CarrierID,
		AmountCents: req.AmountCents, Status: models.BidOpen}, f.replaced, nil
}

func (f *fakeStore) ListBids(context.Context, string, string) ([]models.Bid, error) {
	return nil, f.err
}

func (f *fakeStore) AcceptBid(_ context.Context, tenantID, bidID, _ string) (*database.BidAcceptance, error) {
	if f.err != nil {
		return nil, f.err
	}
	carrier := "carrier-1"
	return &database.BidAcceptance{
		Bid:      &models.Bid{ID: bidID, LoadID: "load-1", CarrierID: carrier, AmountCents: 180000, Status: models.BidAccepted},
		Load:     &models.Load{ID: "load-1", TenantID: tenantID, Reference: "LD-1", CarrierID: &carrier, Status: models.LoadBooked},
		Change:   &models.LoadStatusChange{LoadID: "load-1", FromStatus: models.LoadPosted, ToStatus: models.LoadBooked},
		Rejected: 2,
	}, nil
}

func (f *fakeStore) WithdrawBid(context.Context, string, string) (*models.Bid, error) {
	return &models.Bid{Status: models.BidWithdrawn}, f.err
}

func (f *fakeStore) TransitionLoad(_ context.Context, tenantID, id, to, _, _ string) (*models.Load, *models.LoadStatusChange, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &models.Load{ID: id, TenantID: tenantID, Status: to},
		&models.LoadStatusChange{LoadID: id, FromStatus: models.LoadDraft, ToStatus: to}, nil
}

func (f *fakeStore) RecordPosition(context.Context, string, string, models.PositionRequest) (*database.PositionResult, error) {
	return f.position, f.err
}

func TestPlaceBid_PublishesEvent(t *testing.T) {
	t.Parallel()

	pub := &recorder{}
	svc := NewService(&fakeStore{replaced: true}, pub)

	bid, replaced, err := svc.PlaceBid(context.Background(), "acme", "dispatch", "load-1",
		models.BidRequest{CarrierID: "carrier-1", AmountCents: 150000})
	if err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	if !replaced || bid.ID != "bid-1" {
		t.Errorf("PlaceBid() = %+v, %v", bid, replaced)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	var payload events.BidPlaced
	if err := ev.Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if ev.Topic != events.TopicBidPlaced || ev.TenantID != "acme" || ev.Actor != "dispatch" {
		t.Errorf("event = %+v", ev)
	}
	if payload.AmountCents != 150000 || !payload.Replaced {
		t.Errorf("payload = %+v", payload)
	}
}

func TestAcceptBid_PublishesAcceptanceAndStatus(t *testing.T) {
	t.Parallel()

	pub := &recorder{}
	svc := NewService(&fakeStore{}, pub)

	acc, err := svc.AcceptBid(context.Background(), "acme", "dispatch", "bid-9")
	if err != nil {
		t.Fatalf("AcceptBid() error = %v", err)
	}
	if acc.Load.Status != models.LoadBooked {
		t.Errorf("load status = %s", acc.Load.Status)
	}

	got := pub.topics()
	want := []string{events.TopicBidAccepted, events.TopicLoadStatusChanged}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("topics = %v, want %v", got, want)
	}

	var status events.LoadStatusChanged
	if err := pub.events[1].Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.From != models.LoadPosted || status.To != models.LoadBooked || status.CarrierID != "carrier-1" {
		t.Errorf("status payload = %+v", status)
	}
}

func TestStoreErrorsPublishNothing(t *testing.T) {
	t.Parallel()

	pub := &recorder{}
	svc := NewService(&fakeStore{err: database.ErrBidNotAllowed}, pub)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"place", func() error {
			_, _, err := svc.PlaceBid(ctx, "acme", "u", "l", models.BidRequest{CarrierID: "c", AmountCents: 1})
			return err
		}},
		{"accept", func() error { _, err := svc.AcceptBid(ctx, "acme", "u", "b"); return err }},
		{"transition", func() error { _, err := svc.TransitionLoad(ctx, "acme", "u", "l", models.LoadPosted, ""); return err }},
		{"position", func() error {
			_, err := svc.RecordPosition(ctx, "acme", "u", "l", models.PositionRequest{})
			return err
		}},
	}
	for _, tt := range tests {
		if err := tt.call(); !errors.Is(err, database.ErrBidNotAllowed) {
			t.Errorf("%s: error = %v, want ErrBidNotAllowed", tt.name, err)
		}
	}
	if n := len(pub.topics()); n != 0 {
		t.Errorf("published %d events on failures", n)
	}
}

func TestRecordPosition_FirstPingStartsTransit(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	store := &fakeStore{position: &database.PositionResult{
		Position: &models.Position{LoadID: "load-1", Lat: 41.88, Lon: -87.63, Source: "eld", RecordedAt: at},
		Load:     &models.Load{ID: "load-1", Status: models.LoadInTransit},
		Change:   &models.LoadStatusChange{LoadID: "load-1", FromStatus: models.LoadBooked, ToStatus: models.LoadInTransit},
	}}
	pub := &recorder{}
	svc := NewService(store, pub)

	if _, err := svc.RecordPosition(context.Background(), "acme", "driver", "load-1", models.PositionRequest{}); err != nil {
		t.Fatalf("RecordPosition() error = %v", err)
	}

	got := pub.topics()
	if len(got) != 2 || got[0] != events.TopicTrackingPosition || got[1] != events.TopicLoadStatusChanged {
		t.Fatalf("topics = %v", got)
	}
	if actor := pub.events[1].Actor; actor != database.TrackingActor {
		t.Errorf("status change actor = %q, want %q", actor, database.TrackingActor)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeStore{}, &recorder{err: errors.New("bus down")})
	if _, err := svc.TransitionLoad(context.Background(), "acme", "u", "load-1", models.LoadPosted, ""); err != nil {
		t.Errorf("TransitionLoad() error = %v, want nil when only publishing fails", err)
	}
}

func TestNewService_NilPublisher(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeStore{}, nil)
	if _, err := svc.TransitionLoad(context.Background(), "acme", "u", "load-1", models.LoadPosted, ""); err != nil {
		t.Fatal(err)
	}
}
