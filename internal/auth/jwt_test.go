// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tomtom215/haulbase/internal/config"
)

func TestNewJWTManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{"valid secret", testSecurityConfig(), false},
		{"empty secret", &config.SecurityConfig{SessionTimeout: time.Hour}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewJWTManager(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewJWTManager() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m == nil {
				t.Fatal("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	m := newTestJWT(t)
	p := &Principal{ID: "u-1", Username: "dana", Role: "dispatcher", TenantID: "acme"}

	token, expires, err := m.GenerateToken(p)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if until := time.Until(expires); until < 59*time.Minute || until > time.Hour+time.Minute {
		t.Errorf("expiry %v is not about one hour away", expires)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	got := claims.Principal()
	if got.ID != "u-1" || got.Username != "dana" || got.Role != "dispatcher" || got.TenantID != "acme" {
		t.Errorf("principal = %+v", got)
	}
	if got.Method != AuthModeJWT {
		t.Errorf("method = %q", got.Method)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	t.Parallel()

	m := newTestJWT(t)
	valid, _, err := m.GenerateToken(&Principal{ID: "u-1", Username: "dana", Role: "viewer", TenantID: "acme"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	expired := newTestJWT(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.GenerateToken(&Principal{ID: "u-1", Username: "dana", Role: "viewer", TenantID: "acme"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	otherCfg := testSecurityConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 40)
	other, err := NewJWTManager(otherCfg)
	if err != nil {
		t.Fatal(err)
	}
	foreign, _, err := other.GenerateToken(&Principal{ID: "u-1", Username: "dana", Role: "admin", TenantID: "acme"})
	if err != nil {
		t.Fatal(err)
	}

	noTenant, _, err := m.GenerateToken(&Principal{ID: "u-1", Username: "dana", Role: "viewer"})
	if err != nil {
		t.Fatal(err)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Username: "dana", Role: "admin", TenantID: "acme",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"expired", expiredToken},
		{"wrong secret", foreign},
		{"missing tenant", noTenant},
		{"alg none", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() accepted an invalid token")
			}
		})
	}
}
