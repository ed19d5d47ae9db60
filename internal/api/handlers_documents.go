// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/haulbase/internal/documents"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// multipartOverhead covers the part headers and boundaries around the file.
const multipartOverhead = 1 << 20

// FolderContents returns a folder's subfolders, documents and breadcrumbs.
// The id "root" addresses the top level.
//
// @Summary Folder contents
// @Tags Documents
// @Produce json
// @Param id path string true "Folder ID or root"
// @Success 200 {object} models.APIResponse{data=models.FolderContents}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /folders/{id}/contents [get]
func (h *Handler) FolderContents(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	contents, err := h.documents.Contents(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, contents)
}

// CreateFolder adds a folder.
//
// @Summary Create folder
// @Tags Documents
// @Accept json
// @Produce json
// @Param body body models.FolderRequest true "Folder"
// @Success 201 {object} models.APIResponse{data=models.Folder}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.FolderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := h.documents.CreateFolder(r.Context(), tenant, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, f)
}

// RenameFolder renames a folder.
//
// @Summary Rename folder
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param body body models.RenameFolderRequest true "New name"
// @Success 200 {object} models.APIResponse{data=models.Folder}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /folders/{id} [patch]
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.RenameFolderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := h.documents.RenameFolder(r.Context(), tenant, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, f)
}

// MoveFolder reparents a folder. A null parent_id moves it to the top level.
//
// @Summary Move folder
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param body body models.MoveFolderRequest true "New parent"
// @Success 200 {object} models.APIResponse{data=models.Folder}
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /folders/{id}/move [post]
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req models.MoveFolderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := h.documents.MoveFolder(r.Context(), tenant, chi.URLParam(r, "id"), req.ParentID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, f)
}

// DeleteFolder removes an empty folder.
//
// @Summary Delete folder
// @Tags Documents
// @Param id path string true "Folder ID"
// @Success 204
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.documents.DeleteFolder(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadDocument stores a file sent as multipart/form-data in the "file"
// field. folder_id, entity_type and entity_id are optional form fields.
//
// @Summary Upload document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Param folder_id formData string false "Folder ID"
// @Param entity_type formData string false "Attached entity type" Enums(load, carrier, quote)
// @Param entity_id formData string false "Attached entity ID"
// @Success 201 {object} models.APIResponse{data=models.Document}
// @Failure 413 {object} models.APIResponse
// @Security BearerAuth
// @Router /documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if limit := h.documents.MaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "expected a multipart/form-data body", err)
		return
	}

	up := documents.Upload{}
	fields := map[string]*string{
		"entity_type": &up.EntityType,
		"entity_id":   &up.EntityID,
	}
	var folderID string
	fields["folder_id"] = &folderID

	// Form fields must precede the file part.
	for {
		part, err := mr.NextPart()
		if err != nil {
			respondUploadError(w, r, err, "missing file part")
			return
		}
		if part.FormName() != "file" {
			if dst, known := fields[part.FormName()]; known {
				value, err := io.ReadAll(io.LimitReader(part, 256))
				if err != nil {
					respondUploadError(w, r, err, "malformed form field")
					return
				}
				*dst = strings.TrimSpace(string(value))
			}
			_ = part.Close()
			continue
		}

		up.Name = path.Base(part.FileName())
		if up.Name == "" || up.Name == "." || up.Name == "/" {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file part needs a file name", nil)
			return
		}
		up.ContentType = part.Header.Get("Content-Type")
		if folderID != "" && folderID != models.RootFolderID {
			up.FolderID = &folderID
		}
		if (up.EntityType == "") != (up.EntityID == "") {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "entity_type and entity_id go together", nil)
			return
		}
		if up.EntityType != "" && !models.IsValidEntityType(up.EntityType) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown entity_type "+up.EntityType, nil)
			return
		}
		up.Body = part

		doc, err := h.documents.Upload(r.Context(), tenant, actorOf(r), up)
		_ = part.Close()
		if err != nil {
			respondUploadError(w, r, err, "")
			return
		}
		logging.Ctx(r.Context()).Info().
			Str("document_id", doc.ID).
			Int64("size_bytes", doc.SizeBytes).
			Msg("Document uploaded")
		respondData(w, http.StatusCreated, doc)
		return
	}
}

// respondUploadError maps body-limit failures to 413 and a missing part
// to 400 before falling back to the shared mapping.
func respondUploadError(w http.ResponseWriter, r *http.Request, err error, missing string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		respondServiceError(w, r, documents.ErrTooLarge)
	case missing != "" && errors.Is(err, io.EOF):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", missing, nil)
	case missing != "":
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed multipart body", err)
	default:
		respondServiceError(w, r, err)
	}
}

// GetDocument returns a document's metadata.
//
// @Summary Get document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} models.APIResponse{data=models.Document}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	doc, err := h.documents.Get(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, doc)
}

// DownloadDocument streams a document's contents.
//
// @Summary Download document
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	doc, data, err := h.documents.Download(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	w.Header().Set("ETag", `"`+doc.SHA256+`"`)
	w.Header().Set("Cache-Control", "private, no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == `"`+doc.SHA256+`"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Document download interrupted")
	}
}

// DeleteDocument removes a document.
//
// @Summary Delete document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.documents.Delete(r.Context(), tenant, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EntityDocuments lists the documents attached to a load, carrier or quote.
//
// @Summary Documents attached to an entity
// @Tags Documents
// @Produce json
// @Param entity_type query string true "Entity type" Enums(load, carrier, quote)
// @Param entity_id query string true "Entity ID"
// @Success 200 {object} models.APIResponse{data=[]models.Document}
// @Security BearerAuth
// @Router /documents [get]
func (h *Handler) EntityDocuments(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entityType, entityID := q.Get("entity_type"), q.Get("entity_id")
	if entityType == "" || entityID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "entity_type and entity_id are required", nil)
		return
	}
	if !models.IsValidEntityType(entityType) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown entity_type "+entityType, nil)
		return
	}
	docs, err := h.documents.EntityDocuments(r.Context(), tenant, entityType, entityID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, docs)
}
