// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/models"
)

// PermissionCatalogue lists every permission grouped by resource.
//
// @Summary Permission catalogue
// @Tags Permissions
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.PermissionGroup}
// @Security BearerAuth
// @Router /permissions [get]
func (h *Handler) PermissionCatalogue(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.authz.Catalogue())
}

// ListRoles lists built-in and custom roles.
//
// @Summary List roles
// @Tags Permissions
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Role}
// @Security BearerAuth
// @Router /roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.authz.ListRoles(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, roles)
}

// GetRole returns one role.
//
// @Summary Get role
// @Tags Permissions
// @Produce json
// @Param name path string true "Role name"
// @Success 200 {object} models.APIResponse{data=models.Role}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /roles/{name} [get]
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.authz.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, role)
}

// CreateRole adds a custom role.
//
// @Summary Create role
// @Tags Permissions
// @Accept json
// @Produce json
// @Param body body models.RoleRequest true "Role"
// @Success 201 {object} models.APIResponse{data=models.Role}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /roles [post]
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req models.RoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, err := h.authz.CreateRole(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, role)
}

// UpdateRole changes a role's description.
//
// @Summary Update role
// @Tags Permissions
// @Accept json
// @Produce json
// @Param name path string true "Role name"
// @Param body body models.RoleUpdateRequest true "Description"
// @Success 200 {object} models.APIResponse{data=models.Role}
// @Security BearerAuth
// @Router /roles/{name} [put]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req models.RoleUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, err := h.authz.UpdateRole(r.Context(), chi.URLParam(r, "name"), req.Description)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, role)
}

// DeleteRole removes a custom role that no user holds.
//
// @Summary Delete role
// @Tags Permissions
// @Param name path string true "Role name"
// @Success 204
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /roles/{name} [delete]
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.DeleteRole(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RolePermissions returns the catalogue with the role's grants marked.
//
// @Summary Role permissions
// @Tags Permissions
// @Produce json
// @Param name path string true "Role name"
// @Success 200 {object} models.APIResponse{data=[]models.PermissionGroup}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /roles/{name}/permissions [get]
func (h *Handler) RolePermissions(w http.ResponseWriter, r *http.Request) {
	groups, err := h.authz.RolePermissions(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, groups)
}

// SetRolePermissions replaces a role's permissions. The admin role cannot
// be changed.
//
// @Summary Set role permissions
// @Tags Permissions
// @Accept json
// @Produce json
// @Param name path string true "Role name"
// @Param body body models.RolePermissionsRequest true "Permissions"
// @Success 200 {object} models.APIResponse{data=models.Role}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /roles/{name}/permissions [put]
func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req models.RolePermissionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Permissions == nil {
		req.Permissions = []string{}
	}
	role, err := h.authz.SetRolePermissions(r.Context(), chi.URLParam(r, "name"), req.Permissions)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, role)
}
