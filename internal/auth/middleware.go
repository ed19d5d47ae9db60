// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// TenantHeader selects the tenant in none mode and for the basic-mode admin.
const TenantHeader = "X-Tenant-ID"

// Middleware authenticates requests according to the configured mode.
type Middleware struct {
	mode     AuthMode
	service  *Service
	jwt      *JWTManager
	verifier TokenVerifier
	claims   ClaimMapping
	now      func() time.Time
}

// NewMiddleware returns the auth middleware. jwt is required in jwt mode.
func NewMiddleware(mode AuthMode, service *Service, jwt *JWTManager) *Middleware {
	return &Middleware{mode: mode, service: service, jwt: jwt, now: time.Now}
}

// WithOIDC sets the verifier used in oidc mode.
func (m *Middleware) WithOIDC(v TokenVerifier, mapping ClaimMapping) *Middleware {
	m.verifier = v
	m.claims = mapping
	return m
}

// Mode returns the configured auth mode.
func (m *Middleware) Mode() AuthMode {
	return m.mode
}

// Authenticate stores the caller's Principal in the request context or
// responds 401.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			p   *Principal
			err error
		)
		switch m.mode {
		case AuthModeJWT:
			p, err = m.authenticateJWT(r)
		case AuthModeBasic:
			p, err = m.authenticateBasic(r)
		case AuthModeOIDC:
			p, err = m.authenticateOIDC(r)
		default:
			p = &Principal{
				ID:       "anonymous",
				Username: "anonymous",
				Role:     models.RoleAdmin,
				TenantID: m.headerTenant(r),
				Method:   AuthModeNone,
			}
		}

		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := ContextWithPrincipal(r.Context(), p)
		ctx = logging.ContextWithTenantID(ctx, p.TenantID)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) authenticateJWT(r *http.Request) (*Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrNoCredentials
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
		return nil, ErrInvalidCredentials
	}
	return claims.Principal(), nil
}

func (m *Middleware) authenticateOIDC(r *http.Request) (*Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrNoCredentials
	}
	if m.verifier == nil {
		return nil, errors.New("oidc mode without a token verifier")
	}
	claims, err := m.verifier.Verify(r.Context(), token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("OIDC token rejected")
		return nil, ErrInvalidCredentials
	}
	p, err := PrincipalFromClaims(claims, m.claims)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("sub", claims.Subject).Msg("OIDC claims rejected")
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

func (m *Middleware) authenticateBasic(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}
	username, password, err := ParseBasicAuthHeader(header)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	p, err := m.service.Verify(r.Context(), username, password, clientIP(r))
	if err != nil {
		return nil, err
	}
	p.Method = AuthModeBasic
	if m.service.admin != nil && p.ID == m.service.admin.Username() && p.IsAdmin() {
		p.TenantID = m.headerTenant(r)
	}
	return p, nil
}

// bearerToken reads the Authorization header, then the token cookie. A
// websocket upgrade may also pass ?token=.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

func (m *Middleware) headerTenant(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TenantHeader)); t != "" {
		return t
	}
	return m.service.DefaultTenant()
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	var locked *LockedError
	switch {
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(int(locked.Remaining.Seconds())))
		WriteError(w, http.StatusTooManyRequests, "ACCOUNT_LOCKED", locked.Error())
		return
	case errors.Is(err, ErrNoCredentials), errors.Is(err, ErrInvalidCredentials):
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authentication error")
	}

	if m.mode == AuthModeBasic {
		w.Header().Set("WWW-Authenticate", WWWAuthenticate)
	}
	msg := "authentication required"
	if errors.Is(err, ErrInvalidCredentials) {
		msg = "invalid credentials"
	}
	WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

// RequireRole allows the handler for role and for admins.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || (p.Role != role && !p.IsAdmin()) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}
		next(w, r)
	})
}

// WriteError writes the API error envelope. It lives here so the auth and
// authz middleware can answer without importing the api package.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := models.APIResponse{
		Status: "error",
		Error:  &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode error response")
	}
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already applied X-Forwarded-For for trusted deployments.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
