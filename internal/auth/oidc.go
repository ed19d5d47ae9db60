// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/logging"
)

// TokenVerifier checks an ID token issued by the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*oidc.IDTokenClaims, error)
}

// ClaimMapping says which claims carry the Haulbase principal fields.
type ClaimMapping struct {
	RoleClaim      string
	TenantClaim    string
	UsernameClaims []string
	DefaultRole    string
}

// OIDCVerifier verifies tokens with the zitadel relying party, which
// fetches and caches the issuer's JWKS.
type OIDCVerifier struct {
	party rp.RelyingParty
}

// NewOIDCVerifier runs discovery against the issuer. client may be nil.
func NewOIDCVerifier(ctx context.Context, cfg *config.OIDCConfig, client *http.Client) (*OIDCVerifier, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	party, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.IssuerURL,
		cfg.ClientID,
		cfg.ClientSecret,
		"", // no redirect: tokens arrive as bearer tokens
		cfg.Scopes,
		rp.WithHTTPClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.IssuerURL, err)
	}
	logging.Info().Str("issuer", party.Issuer()).Msg("OIDC token verification enabled")
	return &OIDCVerifier{party: party}, nil
}

// Verify checks signature, issuer, audience and expiry.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*oidc.IDTokenClaims, error) {
	return rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token, v.party.IDTokenVerifier())
}

// PrincipalFromClaims maps verified claims to a Principal. A token without
// the tenant claim cannot be scoped and is rejected.
func PrincipalFromClaims(claims *oidc.IDTokenClaims, m ClaimMapping) (*Principal, error) {
	if claims == nil || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	tenant := firstString(claims.Claims[m.TenantClaim])
	if tenant == "" {
		return nil, fmt.Errorf("%w: token has no %q claim", ErrInvalidCredentials, m.TenantClaim)
	}

	role := firstString(claims.Claims[m.RoleClaim])
	if role == "" {
		role = m.DefaultRole
	}

	p := &Principal{
		ID:       claims.Subject,
		Username: claimUsername(claims, m.UsernameClaims),
		Role:     role,
		TenantID: tenant,
		Method:   AuthModeOIDC,
	}
	if exp := claims.Expiration.AsTime(); !exp.IsZero() {
		p.ExpiresAt = exp
	}
	return p, nil
}

func claimUsername(claims *oidc.IDTokenClaims, names []string) string {
	for _, name := range names {
		var v string
		switch name {
		case "preferred_username":
			v = claims.PreferredUsername
		case "email":
			v = claims.Email
		case "name":
			v = claims.Name
		default:
			v = firstString(claims.Claims[name])
		}
		if v != "" {
			return v
		}
	}
	return claims.Subject
}

// firstString accepts a string claim or the first string of an array claim.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
