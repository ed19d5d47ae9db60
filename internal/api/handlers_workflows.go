// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/models"
)

// ListWorkflows lists the tenant's workflow definitions.
//
// @Summary List workflow definitions
// @Tags Workflows
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.WorkflowDefinition}
// @Security BearerAuth
// @Router /workflows [get]
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	defs, err := h.workflows.ListDefinitions(r.Context(), tenant)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, defs)
}

// CreateWorkflow stores a definition after checking its step graph.
//
// @Summary Create workflow definition
// @Tags Workflows
// @Accept json
// @Produce json
// @Param body body models.WorkflowDefinitionRequest true "Definition"
// @Success 201 {object} models.APIResponse{data=models.WorkflowDefinition}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /workflows [post]
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.WorkflowDefinitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	def, err := h.workflows.CreateDefinition(r.Context(), tenant, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, def)
}

// GetWorkflow returns one definition.
//
// @Summary Get workflow definition
// @Tags Workflows
// @Produce json
// @Param id path string true "Definition ID"
// @Success 200 {object} models.APIResponse{data=models.WorkflowDefinition}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /workflows/{id} [get]
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	def, err := h.workflows.GetDefinition(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, def)
}

// UpdateWorkflow replaces a definition.
//
// @Summary Update workflow definition
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Definition ID"
// @Param body body models.WorkflowDefinitionRequest true "Definition"
// @Success 200 {object} models.APIResponse{data=models.WorkflowDefinition}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /workflows/{id} [put]
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.WorkflowDefinitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	def, err := h.workflows.UpdateDefinition(r.Context(), tenant, chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, def)
}

// DeleteWorkflow removes a definition that has no active executions.
//
// @Summary Delete workflow definition
// @Tags Workflows
// @Param id path string true "Definition ID"
// @Success 204
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /workflows/{id} [delete]
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.workflows.DeleteDefinition(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartExecution starts an execution of an enabled definition.
//
// @Summary Start workflow execution
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Definition ID"
// @Param body body models.StartExecutionRequest false "Subject"
// @Success 201 {object} models.APIResponse{data=models.WorkflowExecution}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /workflows/{id}/executions [post]
func (h *Handler) StartExecution(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.StartExecutionRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}
	exec, err := h.workflows.Start(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, exec)
}

// ListExecutions lists executions, newest first.
//
// @Summary List workflow executions
// @Tags Workflows
// @Produce json
// @Param definition_id query string false "Definition ID"
// @Param status query string false "Status" Enums(running, waiting, completed, failed, cancelled)
// @Param subject_type query string false "Subject type"
// @Param subject_id query string false "Subject ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=[]models.WorkflowExecution}
// @Security BearerAuth
// @Router /executions [get]
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := database.ExecutionFilter{
		DefinitionID: q.Get("definition_id"),
		Status:       q.Get("status"),
		SubjectType:  q.Get("subject_type"),
		SubjectID:    q.Get("subject_id"),
	}
	page := h.page(r)
	execs, total, err := h.workflows.ListExecutions(r.Context(), tenant, filter, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, execs, page, total)
}

// GetExecution returns one execution with its history.
//
// @Summary Get workflow execution
// @Tags Workflows
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} models.APIResponse{data=models.WorkflowExecution}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /executions/{id} [get]
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	exec, err := h.workflows.GetExecution(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, exec)
}

// AdvanceExecution resumes a waiting execution.
//
// @Summary Advance workflow execution
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Execution ID"
// @Param body body models.AdvanceRequest false "Branch choice"
// @Success 200 {object} models.APIResponse{data=models.WorkflowExecution}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /executions/{id}/advance [post]
func (h *Handler) AdvanceExecution(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.AdvanceRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}
	exec, err := h.workflows.Advance(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req.Choice)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, exec)
}

// FailExecution stops an active execution with a reason.
//
// @Summary Fail workflow execution
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Execution ID"
// @Param body body models.FailRequest true "Reason"
// @Success 200 {object} models.APIResponse{data=models.WorkflowExecution}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /executions/{id}/fail [post]
func (h *Handler) FailExecution(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.FailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	exec, err := h.workflows.Fail(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, exec)
}

// CancelExecution stops an active execution.
//
// @Summary Cancel workflow execution
// @Tags Workflows
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} models.APIResponse{data=models.WorkflowExecution}
// @Failure 422 {object} models.APIResponse
// @Security BearerAuth
// @Router /executions/{id}/cancel [post]
func (h *Handler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	exec, err := h.workflows.Cancel(r.Context(), tenant, actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, exec)
}
