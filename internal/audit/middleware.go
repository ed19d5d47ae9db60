// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package audit

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/logging"
)

const apiPrefix = "/api/v1/"

// Middleware records mutating requests of authenticated principals. It must
// run after authentication.
func (l *Logger) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !mutating(r.Method) {
			next(w, r)
			return
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)

		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok || p.TenantID == "" {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		entityType, entityID := entityOf(r, pattern)

		outcome := OutcomeSuccess
		if status >= 400 {
			outcome = OutcomeFailure
		}
		action := r.Method + " " + pattern

		l.Log(&Event{
			TenantID:      p.TenantID,
			Source:        SourceAPI,
			Type:          TypeAPIRequest,
			Action:        action,
			Outcome:       outcome,
			Actor:         p.Username,
			EntityType:    entityType,
			EntityID:      entityID,
			Description:   action + " returned " + http.StatusText(status),
			StatusCode:    status,
			SourceIP:      clientIP(r),
			UserAgent:     r.UserAgent(),
			RequestID:     logging.RequestIDFromContext(r.Context()),
			CorrelationID: logging.CorrelationIDFromContext(r.Context()),
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// entityOf derives the addressed entity from a route such as
// /api/v1/loads/{id}/bids: the first segment names the type and a
// following parameter segment holds the id.
func entityOf(r *http.Request, pattern string) (string, string) {
	rest, ok := strings.CutPrefix(pattern, apiPrefix)
	if !ok {
		return "", ""
	}
	segments := strings.Split(rest, "/")
	entityType := singular(segments[0])
	if len(segments) < 2 {
		return entityType, ""
	}
	param := segments[1]
	if !strings.HasPrefix(param, "{") || !strings.HasSuffix(param, "}") {
		return entityType, ""
	}
	return entityType, chi.URLParam(r, strings.Trim(param, "{}"))
}

func singular(resource string) string {
	if resource == "equipment" {
		return resource
	}
	return strings.TrimSuffix(resource, "s")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
