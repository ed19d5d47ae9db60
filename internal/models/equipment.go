// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

// EquipmentType is a trailer or truck configuration loads can require.
type EquipmentType struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	MaxWeightLbs int    `json:"max_weight_lbs"`
	LengthFt     int    `json:"length_ft"`
	Refrigerated bool   `json:"refrigerated"`
}
