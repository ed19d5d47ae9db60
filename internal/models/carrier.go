// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Carrier statuses.
const (
	CarrierActive   = "active"
	CarrierInactive = "inactive"
	CarrierPending  = "pending"
	CarrierBlocked  = "blocked"
)

// Carrier is a trucking company or owner-operator the brokerage tenders loads to.
type Carrier struct {
	ID                 string     `json:"id"`
	TenantID           string     `json:"tenant_id"`
	Name               string     `json:"name"`
	MCNumber           string     `json:"mc_number,omitempty"`
	DOTNumber          string     `json:"dot_number,omitempty"`
	Status             string     `json:"status"`
	ContactName        string     `json:"contact_name,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Email              string     `json:"email,omitempty"`
	EquipmentTypes     []string   `json:"equipment_types"`
	InsuranceExpiresAt *time.Time `json:"insurance_expires_at,omitempty"`
	SafetyRating       string     `json:"safety_rating,omitempty"`
	AuthorityStatus    string     `json:"authority_status,omitempty"`
	LastVerifiedAt     *time.Time `json:"last_verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CarrierRequest is the body for creating or updating a carrier.
type CarrierRequest struct {
	Name               string     `json:"name" validate:"required,min=1,max=200"`
	MCNumber           string     `json:"mc_number" validate:"omitempty,max=20"`
	DOTNumber          string     `json:"dot_number" validate:"omitempty,numeric,max=10"`
	Status             string     `json:"status" validate:"omitempty,oneof=active inactive pending blocked"`
	ContactName        string     `json:"contact_name" validate:"omitempty,max=200"`
	Phone              string     `json:"phone" validate:"omitempty,max=32"`
	Email              string     `json:"email" validate:"omitempty,email"`
	EquipmentTypes     []string   `json:"equipment_types" validate:"omitempty,dive,min=1,max=32"`
	InsuranceExpiresAt *time.Time `json:"insurance_expires_at"`
}

// CarrierVerification is the outcome of an FMCSA lookup applied to a carrier.
type CarrierVerification struct {
	AuthorityStatus string
	SafetyRating    string
	VerifiedAt      time.Time
	Block           bool
}
