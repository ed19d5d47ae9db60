// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// UserStore is the slice of the database the service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// LockedError carries the remaining lock time of ErrAccountLocked.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s (retry in %s)", ErrAccountLocked, e.Remaining.Round(time.Second))
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}

// Service verifies passwords and issues tokens.
type Service struct {
	users         UserStore
	admin         *BasicAuthManager
	jwt           *JWTManager
	lockout       *Lockout
	defaultTenant string
}

// NewService wires the credential sources. admin, jwt and lockout may be nil.
func NewService(users UserStore, admin *BasicAuthManager, jwt *JWTManager, lockout *Lockout, defaultTenant string) *Service {
	if defaultTenant == "" {
		defaultTenant = "default"
	}
	return &Service{
		users:         users,
		admin:         admin,
		jwt:           jwt,
		lockout:       lockout,
		defaultTenant: defaultTenant,
	}
}

// DefaultTenant is the tenant used when a request names none.
func (s *Service) DefaultTenant() string {
	return s.defaultTenant
}

// Verify checks a username and password against the users table and then the
// configured admin. ip feeds the lockout and may be empty.
func (s *Service) Verify(ctx context.Context, username, password, ip string) (*Principal, error) {
	subjects := []string{username}
	if ip != "" {
		subjects = append(subjects, "ip:"+ip)
	}
	if s.lockout != nil {
		if remaining := s.lockout.Check(subjects...); remaining > 0 {
			return nil, &LockedError{Remaining: remaining}
		}
	}

	p, err := s.verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) && s.lockout != nil {
			if d := s.lockout.Failure(subjects...); d > 0 {
				return nil, &LockedError{Remaining: d}
			}
		}
		return nil, err
	}

	if s.lockout != nil {
		s.lockout.Success(username)
	}
	return p, nil
}

func (s *Service) verify(ctx context.Context, username, password string) (*Principal, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if !CheckPassword(user.PasswordHash, password) {
			return nil, ErrInvalidCredentials
		}
		return &Principal{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
			TenantID: user.TenantID,
		}, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if s.admin != nil && s.admin.Verify(username, password) {
		return &Principal{
			ID:       username,
			Username: username,
			Role:     models.RoleAdmin,
			TenantID: s.defaultTenant,
		}, nil
	}
	return nil, ErrInvalidCredentials
}

// Login verifies credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
	if s.jwt == nil {
		return nil, errors.New("token login is only available in jwt mode")
	}

	p, err := s.Verify(ctx, username, password, ip)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("username", username).Str("ip", ip).Err(err).Msg("Login failed")
		return nil, err
	}
	p.Method = AuthModeJWT

	token, expires, err := s.jwt.GenerateToken(p)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("username", p.Username).
		Str("tenant_id", p.TenantID).
		Msg("Login succeeded")

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		Username:  p.Username,
		Role:      p.Role,
		TenantID:  p.TenantID,
	}, nil
}
