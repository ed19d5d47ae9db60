// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"strings"
	"testing"
)

func TestPasswordPolicy_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		policy   PasswordPolicy
		password string
		username string
		wantErr  string
	}{
		{"strong admin password", AdminPasswordPolicy(), "Dispatch#2026x", "admin", ""},
		{"admin missing special", AdminPasswordPolicy(), "Dispatch2026xy", "admin", "special character"},
		{"admin too short", AdminPasswordPolicy(), "Ab1!", "admin", "at least 12 characters"},
		{"repeated characters", AdminPasswordPolicy(), "Aaaaa#2026xyz", "admin", "more than 3 times"},
		{"contains username", UserPasswordPolicy(), "dispatcher99", "dispatcher", "must not contain the username"},
		{"common password", UserPasswordPolicy(), "freight123", "", "too common"},
		{"user policy ok", UserPasswordPolicy(), "lanes4days", "maria", ""},
		{"user needs digit", UserPasswordPolicy(), "onlyletters", "", "must contain a digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.policy.Check(tt.password, tt.username)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Check() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Check() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLongestRun(t *testing.T) {
	t.Parallel()

	if got := longestRun(""); got != 0 {
		t.Errorf("longestRun(\"\") = %d", got)
	}
	if got := longestRun("abbbcc"); got != 3 {
		t.Errorf("longestRun(abbbcc) = %d, want 3", got)
	}
}
