// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Dashboard is the brokerage overview for a date range.
type Dashboard struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	LoadsByStatus     map[string]int64 `json:"loads_by_status"`
	RevenueCents      int64            `json:"revenue_cents"`
	CarrierCostCents  int64            `json:"carrier_cost_cents"`
	MarginCents       int64            `json:"margin_cents"`
	MarginPercent     float64          `json:"margin_percent"`
	RevenueDisplay    string           `json:"revenue_display"`
	OnTimePercent     float64          `json:"on_time_percent"`
	DeliveredLoads    int64            `json:"delivered_loads"`
	TopLanes          []LaneStat       `json:"top_lanes"`
	TopCarriers       []CarrierStat    `json:"top_carriers"`
	AvgBidsPerPosting float64          `json:"avg_bids_per_posting"`
	TotalBids         int64            `json:"total_bids"`
}

// LaneStat counts loads on an origin to destination state pair.
type LaneStat struct {
	OriginState      string `json:"origin_state"`
	DestinationState string `json:"destination_state"`
	Loads            int64  `json:"loads"`
	RevenueCents     int64  `json:"revenue_cents"`
}

// CarrierStat counts delivered loads per carrier.
type CarrierStat struct {
	CarrierID      string `json:"carrier_id"`
	CarrierName    string `json:"carrier_name"`
	DeliveredLoads int64  `json:"delivered_loads"`
}

// DailyCount is one point of a per-day series.
type DailyCount struct {
	Day   string `json:"day"`
	Loads int64  `json:"loads"`
}
