// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"net/http"

	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/logging"
)

// Middleware enforces permissions on HTTP handlers.
type Middleware struct {
	service *Service
}

// NewMiddleware returns authorization middleware backed by service.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authorize requires resource:action. It must run after authentication.
func (m *Middleware) Authorize(resource, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			auth.WriteError(w, http.StatusForbidden, "FORBIDDEN", "No authentication context")
			return
		}

		allowed, err := m.service.Can(p, resource, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Str("resource", resource).Str("action", action).Msg("Authorization error")
			auth.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed")
			return
		}
		if !allowed {
			auth.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Missing permission "+Permission(resource, action))
			return
		}

		next(w, r)
	}
}

// AuthorizeMethod maps the request method onto an action for resource.
func (m *Middleware) AuthorizeMethod(resource string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Authorize(resource, methodToAction(r.Method), next)(w, r)
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
