// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package fmcsa

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/models"
)

// Authority statuses reported on CarrierRecord.
const (
	AuthorityActive       = "ACTIVE"
	AuthorityInactive     = "INACTIVE"
	AuthorityNone         = "NONE"
	AuthorityOutOfService = "OUT_OF_SERVICE"
)

// CarrierRecord is the subset of a QCMobile carrier record the TMS uses.
type CarrierRecord struct {
	DOTNumber        string    `json:"dot_number"`
	LegalName        string    `json:"legal_name"`
	DBAName          string    `json:"dba_name,omitempty"`
	AllowedToOperate bool      `json:"allowed_to_operate"`
	AuthorityStatus  string    `json:"authority_status"`
	SafetyRating     string    `json:"safety_rating"`
	OutOfService     bool      `json:"out_of_service"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Active reports whether the carrier may legally haul freight.
func (r *CarrierRecord) Active() bool {
	return r.AuthorityStatus == AuthorityActive
}

// qcCarrierResponse mirrors GET /carriers/{dot}.
type qcCarrierResponse struct {
	Content *struct {
		Carrier *qcCarrier `json:"carrier"`
	} `json:"content"`
}

type qcCarrier struct {
	DOTNumber             json.Number `json:"dotNumber"`
	LegalName             string      `json:"legalName"`
	DBAName               string      `json:"dbaName"`
	AllowedToOperate      string      `json:"allowedToOperate"`
	CommonAuthorityStatus string      `json:"commonAuthorityStatus"`
	SafetyRating          string      `json:"safetyRating"`
	OOSDate               string      `json:"oosDate"`
	StatusCode            string      `json:"statusCode"`
}

func (c *qcCarrier) record(now time.Time) *CarrierRecord {
	rec := &CarrierRecord{
		DOTNumber:        c.DOTNumber.String(),
		LegalName:        c.LegalName,
		DBAName:          c.DBAName,
		AllowedToOperate: strings.EqualFold(c.AllowedToOperate, "Y"),
		SafetyRating:     safetyRating(c.SafetyRating),
		OutOfService:     c.OOSDate != "",
		FetchedAt:        now,
	}
	rec.AuthorityStatus = authorityStatus(rec, c.CommonAuthorityStatus)
	return rec
}

func authorityStatus(rec *CarrierRecord, common string) string {
	switch {
	case rec.OutOfService:
		return AuthorityOutOfService
	case !rec.AllowedToOperate:
		return AuthorityInactive
	}
	switch strings.ToUpper(common) {
	case "A":
		return AuthorityActive
	case "I":
		return AuthorityInactive
	case "N", "":
		// Private and exempt carriers have no common authority but may
		// still be allowed to operate.
		return AuthorityActive
	default:
		return AuthorityNone
	}
}

func safetyRating(code string) string {
	switch strings.ToUpper(code) {
	case "S":
		return "SATISFACTORY"
	case "C":
		return "CONDITIONAL"
	case "U":
		return "UNSATISFACTORY"
	default:
		return "NOT_RATED"
	}
}

// validDOT reports whether dot looks like a USDOT number.
func validDOT(dot string) bool {
	if dot == "" || len(dot) > 10 {
		return false
	}
	_, err := strconv.ParseUint(dot, 10, 64)
	return err == nil
}

// Verification converts a lookup into the fields stored on a carrier.
// Carriers without active authority are blocked.
func (r *CarrierRecord) Verification() models.CarrierVerification {
	return models.CarrierVerification{
		AuthorityStatus: r.AuthorityStatus,
		SafetyRating:    r.SafetyRating,
		VerifiedAt:      r.FetchedAt,
		Block:           !r.Active(),
	}
}
