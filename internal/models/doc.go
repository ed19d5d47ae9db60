// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package models defines the data structures shared by the store, service and
HTTP layers of Haulbase.

Entity models (Carrier, Load, Quote, Bid, WorkflowDefinition, Document and
friends) carry json tags for the API. Request types carry validate tags for
github.com/go-playground/validator/v10 and are checked before they reach the
store.

Money is always int64 cents. Times are UTC.

The load status machine lives here so that the store and the service layers
agree on it:

	draft -> posted -> booked -> in_transit -> delivered
	posted -> draft
	any non-terminal -> cancelled
*/
package models
