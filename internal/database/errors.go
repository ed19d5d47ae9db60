// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/haulbase/internal/logging"
)

// Sentinel errors returned by store methods. Handlers map them to HTTP statuses.
var (
	// ErrNotFound is returned when a row does not exist for the caller's tenant.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule or
	// touch a row that is still in use.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBidNotAllowed is returned when a bid is placed or accepted outside
	// the rules of the load board.
	ErrBidNotAllowed = errors.New("bid not allowed")

	// ErrNoEquipmentTable is returned when none of the configured equipment
	// tables exist.
	ErrNoEquipmentTable = errors.New("no equipment table available")

	// ErrBuiltInRole is returned when deleting one of the seeded roles.
	ErrBuiltInRole = errors.New("built-in roles cannot be deleted")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "primary key constraint")
}

// isMissingTableError reports a DuckDB catalog error for an absent table.
//
//	Catalog Error: Table with name equipment_types does not exist!
func isMissingTableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update")
}
