// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/haulbase/internal/authz"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/documents"
	"github.com/tomtom215/haulbase/internal/fmcsa"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
	"github.com/tomtom215/haulbase/internal/workflow"
)

// errorMapping ties a sentinel error to its HTTP status and API code.
type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is. Client errors carry the
// wrapped message; anything unmatched is a 500 with a generic message.
var errorMappings = []errorMapping{
	{database.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{documents.ErrBlobNotFound, http.StatusNotFound, "NOT_FOUND"},
	{fmcsa.ErrCarrierNotFound, http.StatusNotFound, "NOT_FOUND"},
	{database.ErrBuiltInRole, http.StatusConflict, "CONFLICT"},
	{authz.ErrImmutableRole, http.StatusConflict, "CONFLICT"},
	{database.ErrConflict, http.StatusConflict, "CONFLICT"},
	{database.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{database.ErrBidNotAllowed, http.StatusUnprocessableEntity, "BID_NOT_ALLOWED"},
	{workflow.ErrInvalidDefinition, http.StatusUnprocessableEntity, "INVALID_DEFINITION"},
	{authz.ErrUnknownPermission, http.StatusBadRequest, "VALIDATION_ERROR"},
	{fmcsa.ErrInvalidDOT, http.StatusBadRequest, "VALIDATION_ERROR"},
	{documents.ErrTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	{database.ErrNoEquipmentTable, http.StatusServiceUnavailable, "EQUIPMENT_UNAVAILABLE"},
	{fmcsa.ErrDisabled, http.StatusServiceUnavailable, "INTEGRATION_DISABLED"},
	{fmcsa.ErrUnauthorized, http.StatusBadGateway, "UPSTREAM_ERROR"},
	{fmcsa.ErrUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
}

// classifyError returns the status and envelope error for err.
func classifyError(err error) (int, *models.APIError) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		apiErr := &models.APIError{Code: m.code, Message: err.Error()}
		var defErr *workflow.DefinitionError
		if errors.As(err, &defErr) {
			apiErr.Details = map[string]interface{}{"problems": defErr.Problems}
		}
		return m.status, apiErr
	}
	return http.StatusInternalServerError, &models.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	}
}

// respondServiceError maps a store or service error onto the envelope.
// Only unexpected errors are logged at error level.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", status).
			Msg("Request failed")
	} else {
		logging.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	respondErrorDetails(w, status, apiErr, nil)
}
