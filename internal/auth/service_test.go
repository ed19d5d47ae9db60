// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/haulbase/internal/models"
)

func TestService_Verify(t *testing.T) {
	t.Parallel()

	users := newMemoryUsers(t,
		newTestUser(t, "dana", "dispatch-pass", models.RoleDispatcher, "acme"),
	)
	svc := NewService(users, newTestAdmin(t), nil, nil, "default")

	tests := []struct {
		name       string
		username   string
		password   string
		wantErr    error
		wantRole   string
		wantTenant string
	}{
		{"user", "dana", "dispatch-pass", nil, models.RoleDispatcher, "acme"},
		{"user wrong password", "dana", "nope", ErrInvalidCredentials, "", ""},
		{"admin", "root", "root-password-1", nil, models.RoleAdmin, "default"},
		{"admin wrong password", "root", "nope", ErrInvalidCredentials, "", ""},
		{"unknown", "ghost", "whatever", ErrInvalidCredentials, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := svc.Verify(context.Background(), tt.username, tt.password, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if p.Role != tt.wantRole || p.TenantID != tt.wantTenant {
				t.Errorf("principal = %+v", p)
			}
		})
	}
}

func TestService_VerifyStoreError(t *testing.T) {
	t.Parallel()

	users := newMemoryUsers(t)
	users.err = errors.New("disk on fire")
	svc := NewService(users, newTestAdmin(t), nil, nil, "")

	_, err := svc.Verify(context.Background(), "root", "root-password-1", "")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want a store error", err)
	}
}

func TestService_VerifyLocksOut(t *testing.T) {
	t.Parallel()

	users := newMemoryUsers(t, newTestUser(t, "dana", "dispatch-pass", models.RoleDispatcher, "acme"))
	lockout, _ := newTestLockout(2)
	svc := NewService(users, nil, nil, lockout, "default")
	ctx := context.Background()

	if _, err := svc.Verify(ctx, "dana", "bad", "10.0.0.9"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("first failure: %v", err)
	}
	_, err := svc.Verify(ctx, "dana", "bad", "10.0.0.9")
	var locked *LockedError
	if !errors.As(err, &locked) || !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("second failure: %v, want LockedError", err)
	}

	if _, err := svc.Verify(ctx, "dana", "dispatch-pass", "10.0.0.9"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("correct password during lock: %v", err)
	}
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	users := newMemoryUsers(t, newTestUser(t, "dana", "dispatch-pass", models.RoleDispatcher, "acme"))
	jwtm := newTestJWT(t)
	svc := NewService(users, nil, jwtm, NewLockout(DefaultLockoutConfig()), "default")

	resp, err := svc.Login(context.Background(), "dana", "dispatch-pass", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TenantID != "acme" || resp.Role != models.RoleDispatcher || resp.Token == "" {
		t.Errorf("response = %+v", resp)
	}

	claims, err := jwtm.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != "user-dana" {
		t.Errorf("subject = %q", claims.Subject)
	}

	if _, err := svc.Login(context.Background(), "dana", "wrong", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad login err = %v", err)
	}
}

func TestService_LoginWithoutJWT(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemoryUsers(t), nil, nil, nil, "")
	if _, err := svc.Login(context.Background(), "a", "b", ""); err == nil {
		t.Error("Login without a JWT manager should fail")
	}
}
