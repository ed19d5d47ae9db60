// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package validation checks request bodies with go-playground/validator v10.
//
// A single validator instance is shared by every handler so struct metadata is
// parsed once. Errors are reported with json field paths ("origin.state",
// "steps[2].key") and translated into the VALIDATION_ERROR envelope the API
// returns with status 400.
//
// Two rules are added on top of the built-ins:
//
//	slug        lowercase identifier: [a-z0-9][a-z0-9_-]*
//	permission  resource:action where action is read, write or delete
//
// Typical use in a handler:
//
//	var req models.LoadRequest
//	if err := decodeJSON(r, &req); err != nil { ... }
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
