// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/models"
)

// Login exchanges a username and password for a JWT.
//
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.config != nil && h.config.Security.AuthMode != string(auth.AuthModeJWT) {
		respondError(w, http.StatusBadRequest, "LOGIN_UNAVAILABLE", "Token login requires AUTH_MODE=jwt", nil)
		return
	}

	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Username, req.Password, remoteIP(r))
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", strconv.Itoa(int(locked.Remaining.Seconds())))
			respondError(w, http.StatusTooManyRequests, "ACCOUNT_LOCKED", locked.Error(), nil)
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", err)
		}
		return
	}
	respondData(w, http.StatusOK, resp)
}

// Me returns the authenticated principal.
//
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} models.APIResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	data := map[string]interface{}{
		"principal": p,
	}
	if h.authz != nil {
		if role, err := h.authz.GetRole(r.Context(), p.Role); err == nil {
			data["permissions"] = role.Permissions
		}
	}
	respondData(w, http.StatusOK, data)
}

// CreateUser adds a login to the caller's tenant. Only admins may create
// users in another tenant.
//
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body models.CreateUserRequest true "User"
// @Success 201 {object} models.APIResponse{data=models.User}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.TenantID == "" {
		req.TenantID = tenant
	}
	if req.TenantID != tenant && !principal(r).IsAdmin() {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Only admins can create users in another tenant", nil)
		return
	}
	if err := config.UserPasswordPolicy().Check(req.Password, req.Username); err != nil {
		respondErrorDetails(w, http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
			Details: map[string]interface{}{"field": "password"},
		}, nil)
		return
	}
	if _, err := h.authz.GetRole(r.Context(), req.Role); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondErrorDetails(w, http.StatusBadRequest, &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: "role " + req.Role + " does not exist",
				Details: map[string]interface{}{"field": "role"},
			}, nil)
			return
		}
		respondServiceError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", err)
		return
	}
	user := &models.User{
		TenantID:     req.TenantID,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, user)
}

// ListUsers lists the tenant's users. Password hashes are never serialized.
//
// @Summary List users
// @Tags Users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.User}
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	page := h.page(r)
	users, total, err := h.db.ListUsers(r.Context(), tenant, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, users, page, total)
}

// DeleteUser removes a user of the tenant.
//
// @Summary Delete user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteUser(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
