// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Bid statuses.
const (
	BidOpen      = "open"
	BidAccepted  = "accepted"
	BidRejected  = "rejected"
	BidWithdrawn = "withdrawn"
)

// Bid is a carrier's offer to haul a posted load.
type Bid struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	LoadID      string    `json:"load_id"`
	CarrierID   string    `json:"carrier_id"`
	CarrierName string    `json:"carrier_name,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BidRequest is the body of POST /loads/{id}/bids.
type BidRequest struct {
	CarrierID   string `json:"carrier_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Notes       string `json:"notes" validate:"omitempty,max=500"`
}

// BoardEntry is a posted load as shown on the load board.
type BoardEntry struct {
	Load
	BidCount       int    `json:"bid_count"`
	LowestBidCents *int64 `json:"lowest_bid_cents,omitempty"`
}
