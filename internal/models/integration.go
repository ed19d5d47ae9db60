// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// Integration kinds.
const (
	IntegrationFMCSA      = "fmcsa"
	IntegrationELD        = "eld"
	IntegrationAccounting = "accounting"
)

// Integration is a tenant's connection to an outside system.
// Settings are stored encrypted and returned masked.
type Integration struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"`
	Kind          string            `json:"kind"`
	Name          string            `json:"name"`
	Enabled       bool              `json:"enabled"`
	Settings      map[string]string `json:"settings"`
	LastCheckedAt *time.Time        `json:"last_checked_at,omitempty"`
	LastStatus    string            `json:"last_status,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IntegrationRequest is the body of PUT /integrations/{kind}.
type IntegrationRequest struct {
	Name     string            `json:"name" validate:"required,min=1,max=200"`
	Enabled  bool              `json:"enabled"`
	Settings map[string]string `json:"settings" validate:"omitempty,dive,keys,min=1,max=64,endkeys,max=1024"`
}

// IntegrationTestResult reports a connectivity check.
type IntegrationTestResult struct {
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
