// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/haulbase/internal/models"
)

// AuthMode is the authentication strategy.
type AuthMode string

const (
	AuthModeNone  AuthMode = "none"
	AuthModeBasic AuthMode = "basic"
	AuthModeJWT   AuthMode = "jwt"
	AuthModeOIDC  AuthMode = "oidc"
)

// ParseAuthMode converts a config value to an AuthMode. Empty means none.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none", "":
		return AuthModeNone, nil
	case "basic":
		return AuthModeBasic, nil
	case "jwt":
		return AuthModeJWT, nil
	case "oidc":
		return AuthModeOIDC, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

func (m AuthMode) String() string {
	return string(m)
}

var (
	// ErrNoCredentials indicates the request carried no credentials.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials covers unknown users, wrong passwords and bad tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is returned while a username or IP is locked out.
	ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts")
)

// Principal is the authenticated caller.
type Principal struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenant_id"`
	Method    AuthMode  `json:"auth_method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the principal holds the built-in admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// IsExpired reports whether a token-backed principal has expired.
func (p *Principal) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}

// TenantFromContext returns the caller's tenant or "" when unauthenticated.
func TenantFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.TenantID
	}
	return ""
}
