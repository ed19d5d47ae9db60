// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines requirements for password strength.
type PasswordPolicy struct {
	MinLength             int
	RequireUppercase      bool
	RequireLowercase      bool
	RequireDigit          bool
	RequireSpecial        bool
	MaxConsecutiveRepeats int // 0 disables the check
}

// AdminPasswordPolicy is enforced on the bootstrap admin account.
func AdminPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:             12,
		RequireUppercase:      true,
		RequireLowercase:      true,
		RequireDigit:          true,
		RequireSpecial:        true,
		MaxConsecutiveRepeats: 3,
	}
}

// UserPasswordPolicy is enforced when dispatchers and viewers are created.
func UserPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:             8,
		RequireLowercase:      true,
		RequireDigit:          true,
		MaxConsecutiveRepeats: 4,
	}
}

// Check returns an error listing every rule the password breaks, or nil.
func (p PasswordPolicy) Check(password, username string) error {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters (got %d)", p.MinLength, len(password)))
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if p.RequireUppercase && !upper {
		problems = append(problems, "password must contain an uppercase letter")
	}
	if p.RequireLowercase && !lower {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if p.RequireDigit && !digit {
		problems = append(problems, "password must contain a digit")
	}
	if p.RequireSpecial && !special {
		problems = append(problems, "password must contain a special character")
	}

	if p.MaxConsecutiveRepeats > 0 && longestRun(password) > p.MaxConsecutiveRepeats {
		problems = append(problems, fmt.Sprintf("password cannot repeat a character more than %d times in a row", p.MaxConsecutiveRepeats))
	}
	if commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "password is too common")
	}
	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		problems = append(problems, "password must not contain the username")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func longestRun(s string) int {
	longest, run := 0, 0
	var last rune
	for i, r := range s {
		if i > 0 && r == last {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		last = r
	}
	return longest
}

var commonPasswords = map[string]bool{
	"123456":       true,
	"12345678":     true,
	"123456789":    true,
	"password":     true,
	"password1":    true,
	"password123":  true,
	"qwerty":       true,
	"qwerty123":    true,
	"letmein":      true,
	"welcome1":     true,
	"admin":        true,
	"admin123":     true,
	"changeme":     true,
	"p@ssw0rd":     true,
	"passw0rd!":    true,
	"abcd1234":     true,
	"1q2w3e4r":     true,
	"trucking1":    true,
	"freight123":   true,
	"dispatch1":    true,
	"haulbase":     true,
	"haulbase123":  true,
	"logistics1":   true,
	"password123!": true,
}
