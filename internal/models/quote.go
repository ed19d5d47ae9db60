// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Quote statuses.
const (
	QuoteDraft    = "draft"
	QuoteSent     = "sent"
	QuoteAccepted = "accepted"
	QuoteRejected = "rejected"
	QuoteExpired  = "expired"
)

// Quote is a priced offer to a customer for a lane.
type Quote struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	CustomerName       string    `json:"customer_name"`
	Origin             Location  `json:"origin"`
	Destination        Location  `json:"destination"`
	EquipmentType      string    `json:"equipment_type"`
	DistanceMiles      float64   `json:"distance_miles"`
	WeightLbs          int       `json:"weight_lbs"`
	LinehaulCents      int64     `json:"linehaul_cents"`
	FuelSurchargeCents int64     `json:"fuel_surcharge_cents"`
	AccessorialsCents  int64     `json:"accessorials_cents"`
	TotalCents         int64     `json:"total_cents"`
	Status             string    `json:"status"`
	ValidUntil         time.Time `json:"valid_until"`
	LoadID             *string   `json:"load_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EffectiveStatus reports expired for open quotes past ValidUntil.
func (q *Quote) EffectiveStatus(now time.Time) string {
	if (q.Status == QuoteDraft || q.Status == QuoteSent) && now.After(q.ValidUntil) {
		return QuoteExpired
	}
	return q.Status
}

// QuoteRequest is the body of POST /quotes.
type QuoteRequest struct {
	CustomerName      string     `json:"customer_name" validate:"required,min=1,max=200"`
	Origin            Location   `json:"origin" validate:"required"`
	Destination       Location   `json:"destination" validate:"required"`
	EquipmentType     string     `json:"equipment_type" validate:"required,max=32"`
	DistanceMiles     float64    `json:"distance_miles" validate:"min=0,max=10000"`
	WeightLbs         int        `json:"weight_lbs" validate:"min=0,max=200000"`
	AccessorialsCents int64      `json:"accessorials_cents" validate:"min=0"`
	ValidUntil        *time.Time `json:"valid_until"`
}

// ConvertQuoteRequest carries the load dates a converted quote needs.
type ConvertQuoteRequest struct {
	PickupAt   time.Time `json:"pickup_at" validate:"required"`
	DeliveryAt time.Time `json:"delivery_at" validate:"required,gtfield=PickupAt"`
	Commodity  string    `json:"commodity" validate:"omitempty,max=200"`
}
