// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Load statuses.
const (
	LoadDraft     = "draft"
	LoadPosted    = "posted"
	LoadBooked    = "booked"
	LoadInTransit = "in_transit"
	LoadDelivered = "delivered"
	LoadCancelled = "cancelled"
)

// loadTransitions lists the allowed next statuses for each load status.
var loadTransitions = map[string][]string{
	LoadDraft:     {LoadPosted, LoadCancelled},
	LoadPosted:    {LoadBooked, LoadDraft, LoadCancelled},
	LoadBooked:    {LoadInTransit, LoadCancelled},
	LoadInTransit: {LoadDelivered, LoadCancelled},
}

// CanTransitionLoad reports whether a load may move from one status to another.
func CanTransitionLoad(from, to string) bool {
	for _, next := range loadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsLoadEditable reports whether load details may still be changed.
func IsLoadEditable(status string) bool {
	return status == LoadDraft || status == LoadPosted
}

// IsValidLoadStatus reports whether s names a known load status.
func IsValidLoadStatus(s string) bool {
	switch s {
	case LoadDraft, LoadPosted, LoadBooked, LoadInTransit, LoadDelivered, LoadCancelled:
		return true
	}
	return false
}

// Location is a pickup or delivery point.
type Location struct {
	City  string  `json:"city" validate:"required,max=100"`
	State string  `json:"state" validate:"required,len=2,alpha"`
	Lat   float64 `json:"lat" validate:"latitude"`
	Lon   float64 `json:"lon" validate:"longitude"`
}

// Load is a shipment tracked from booking through delivery.
type Load struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	Reference        string     `json:"reference"`
	CustomerName     string     `json:"customer_name"`
	Origin           Location   `json:"origin"`
	Destination      Location   `json:"destination"`
	PickupAt         time.Time  `json:"pickup_at"`
	DeliveryAt       time.Time  `json:"delivery_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	EquipmentType    string     `json:"equipment_type"`
	WeightLbs        int        `json:"weight_lbs"`
	Commodity        string     `json:"commodity,omitempty"`
	RateCents        int64      `json:"rate_cents"`
	CarrierRateCents int64      `json:"carrier_rate_cents,omitempty"`
	CarrierID        *string    `json:"carrier_id,omitempty"`
	Status           string     `json:"status"`
	PostedToBoard    bool       `json:"posted_to_board"`
	QuoteID          *string    `json:"quote_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LoadRequest is the body for creating or updating a load.
type LoadRequest struct {
	Reference     string    `json:"reference" validate:"omitempty,max=40"`
	CustomerName  string    `json:"customer_name" validate:"required,min=1,max=200"`
	Origin        Location  `json:"origin" validate:"required"`
	Destination   Location  `json:"destination" validate:"required"`
	PickupAt      time.Time `json:"pickup_at" validate:"required"`
	DeliveryAt    time.Time `json:"delivery_at" validate:"required,gtfield=PickupAt"`
	EquipmentType string    `json:"equipment_type" validate:"required,max=32"`
	WeightLbs     int       `json:"weight_lbs" validate:"min=0,max=200000"`
	Commodity     string    `json:"commodity" validate:"omitempty,max=200"`
	RateCents     int64     `json:"rate_cents" validate:"min=0"`
}

// StatusChangeRequest is the body of POST /loads/{id}/status.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=draft posted booked in_transit delivered cancelled"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}

// LoadStatusChange is one row of a load's status history.
type LoadStatusChange struct {
	ID         string    `json:"id"`
	LoadID     string    `json:"load_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	Note       string    `json:"note,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}
