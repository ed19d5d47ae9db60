// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/haulbase/internal/models"
)

var testMapping = ClaimMapping{
	RoleClaim:      "haulbase_role",
	TenantClaim:    "haulbase_tenant",
	UsernameClaims: []string{"preferred_username", "email"},
	DefaultRole:    models.RoleViewer,
}

func idClaims(sub string, custom map[string]any) *oidc.IDTokenClaims {
	return &oidc.IDTokenClaims{
		TokenClaims: oidc.TokenClaims{
			Subject:    sub,
			Expiration: oidc.FromTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		},
		UserInfoEmail: oidc.UserInfoEmail{Email: sub + "@example.com"},
		Claims:        custom,
	}
}

// stubVerifier accepts tokens it knows about.
type stubVerifier map[string]*oidc.IDTokenClaims

func (s stubVerifier) Verify(_ context.Context, token string) (*oidc.IDTokenClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("oidc: signature invalid")
}

func TestPrincipalFromClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		claims   *oidc.IDTokenClaims
		wantErr  bool
		wantRole string
		wantUser string
	}{
		{
			name:     "string claims",
			claims:   idClaims("u1", map[string]any{"haulbase_tenant": "acme", "haulbase_role": "dispatcher"}),
			wantRole: "dispatcher",
			wantUser: "u1@example.com",
		},
		{
			name:     "array role claim",
			claims:   idClaims("u2", map[string]any{"haulbase_tenant": []any{"acme"}, "haulbase_role": []any{"admin", "viewer"}}),
			wantRole: models.RoleAdmin,
			wantUser: "u2@example.com",
		},
		{
			name:     "missing role takes default",
			claims:   idClaims("u3", map[string]any{"haulbase_tenant": "acme"}),
			wantRole: models.RoleViewer,
			wantUser: "u3@example.com",
		},
		{
			name:    "missing tenant",
			claims:  idClaims("u4", map[string]any{"haulbase_role": "admin"}),
			wantErr: true,
		},
		{
			name:    "no subject",
			claims:  idClaims("", map[string]any{"haulbase_tenant": "acme"}),
			wantErr: true,
		},
		{name: "nil claims", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := PrincipalFromClaims(tt.claims, testMapping)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("err = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PrincipalFromClaims: %v", err)
			}
			if p.Role != tt.wantRole || p.Username != tt.wantUser || p.TenantID != "acme" {
				t.Errorf("principal = %+v", p)
			}
			if p.Method != AuthModeOIDC || p.ExpiresAt.IsZero() {
				t.Errorf("method/expiry = %s/%v", p.Method, p.ExpiresAt)
			}
		})
	}
}

func TestClaimUsername_PreferredFirst(t *testing.T) {
	t.Parallel()
	c := idClaims("u5", nil)
	c.PreferredUsername = "dana.k"
	if got := claimUsername(c, testMapping.UsernameClaims); got != "dana.k" {
		t.Errorf("username = %q, want dana.k", got)
	}
	if got := claimUsername(c, []string{"employee_id"}); got != "u5" {
		t.Errorf("fallback username = %q, want subject", got)
	}
}

func TestAuthenticate_OIDC(t *testing.T) {
	t.Parallel()

	verifier := stubVerifier{
		"good":      idClaims("u1", map[string]any{"haulbase_tenant": "acme", "haulbase_role": "dispatcher"}),
		"no-tenant": idClaims("u2", map[string]any{"haulbase_role": "dispatcher"}),
	}
	mw := NewMiddleware(AuthModeOIDC, NewService(newMemoryUsers(t), nil, nil, nil, "default"), nil).
		WithOIDC(verifier, testMapping)
	handler := mw.Authenticate(principalEcho(t))

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"verified", "good", http.StatusOK},
		{"bad signature", "forged", http.StatusUnauthorized},
		{"no tenant claim", "no-tenant", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/loads", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			req.Header.Set(TenantHeader, "someone-else")
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				p := decodePrincipal(t, rec)
				if p.TenantID != "acme" || p.Role != "dispatcher" {
					t.Errorf("principal = %+v, want the token's tenant and role", p)
				}
			}
		})
	}
}
