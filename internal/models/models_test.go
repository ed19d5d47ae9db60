// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestCanTransitionLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to string
		want     bool
	}{
		{LoadDraft, LoadPosted, true},
		{LoadPosted, LoadDraft, true},
		{LoadPosted, LoadBooked, true},
		{LoadBooked, LoadInTransit, true},
		{LoadInTransit, LoadDelivered, true},
		{LoadDraft, LoadCancelled, true},
		{LoadBooked, LoadCancelled, true},
		{LoadInTransit, LoadCancelled, true},
		{LoadDraft, LoadBooked, false},
		{LoadDraft, LoadDelivered, false},
		{LoadBooked, LoadPosted, false},
		{LoadDelivered, LoadCancelled, false},
		{LoadCancelled, LoadDraft, false},
		{LoadDelivered, LoadInTransit, false},
		{"unknown", LoadPosted, false},
	}

	for _, tt := range tests {
		if got := CanTransitionLoad(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionLoad(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsLoadEditable(t *testing.T) {
	t.Parallel()

	for status, want := range map[string]bool{
		LoadDraft:     true,
		LoadPosted:    true,
		LoadBooked:    false,
		LoadInTransit: false,
		LoadDelivered: false,
		LoadCancelled: false,
	} {
		if got := IsLoadEditable(status); got != want {
			t.Errorf("IsLoadEditable(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestQuoteEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		status     string
		validUntil time.Time
		want       string
	}{
		{"sent and valid", QuoteSent, now.Add(time.Hour), QuoteSent},
		{"sent past validity", QuoteSent, now.Add(-time.Minute), QuoteExpired},
		{"draft past validity", QuoteDraft, now.Add(-time.Minute), QuoteExpired},
		{"accepted stays accepted", QuoteAccepted, now.Add(-time.Hour), QuoteAccepted},
		{"rejected stays rejected", QuoteRejected, now.Add(-time.Hour), QuoteRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := &Quote{Status: tt.status, ValidUntil: tt.validUntil}
			if got := q.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	t.Parallel()

	p := NewPagination(Page{Limit: 25, Offset: 25}, 60)
	if !p.HasMore {
		t.Error("expected more results after offset 25+25 of 60")
	}
	p = NewPagination(Page{Limit: 25, Offset: 50}, 60)
	if p.HasMore {
		t.Error("expected last page at offset 50 of 60")
	}
}

func TestWorkflowDefinitionSteps(t *testing.T) {
	t.Parallel()

	def := &WorkflowDefinition{Steps: []WorkflowStep{
		{Key: "begin", Type: StepStart, Next: []string{"approve"}},
		{Key: "approve", Type: StepApproval, Next: []string{"done"}},
		{Key: "done", Type: StepEnd},
	}}

	start, ok := def.StartStep()
	if !ok || start.Key != "begin" {
		t.Fatalf("StartStep() = %+v, %v", start, ok)
	}
	if _, ok := def.Step("approve"); !ok {
		t.Error("Step(approve) not found")
	}
	if _, ok := def.Step("missing"); ok {
		t.Error("Step(missing) should not be found")
	}
}

func TestUserPasswordHashNotSerialized(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(User{Username: "dispatch", PasswordHash: "$2a$10$secret"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{"midwest", BoundingBox{MinLat: 36, MinLon: -97, MaxLat: 49, MaxLon: -80}, false},
		{"single point", BoundingBox{MinLat: 41, MinLon: -87, MaxLat: 41, MaxLon: -87}, false},
		{"latitude out of range", BoundingBox{MinLat: -91, MinLon: -97, MaxLat: 49, MaxLon: -80}, true},
		{"inverted longitude", BoundingBox{MinLat: 36, MinLon: -80, MaxLat: 49, MaxLon: -97}, true},
		{"NaN min_lat", BoundingBox{MinLat: math.NaN(), MinLon: -97, MaxLat: 49, MaxLon: -80}, true},
		{"NaN max_lon", BoundingBox{MinLat: 36, MinLon: -97, MaxLat: 49, MaxLon: math.NaN()}, true},
		{"infinite max_lat", BoundingBox{MinLat: 36, MinLon: -97, MaxLat: math.Inf(1), MaxLon: -80}, true},
	}
	for _, tt := range tests {
		if err := tt.box.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
