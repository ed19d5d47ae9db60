// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package models

import "time"

// RootFolderID addresses the top level of a tenant's document tree.
const RootFolderID = "root"

// Entity types a document can be attached to.
const (
	EntityLoad    = "load"
	EntityCarrier = "carrier"
	EntityQuote   = "quote"
)

// IsValidEntityType reports whether documents can attach to t.
func IsValidEntityType(t string) bool {
	switch t {
	case EntityLoad, EntityCarrier, EntityQuote:
		return true
	}
	return false
}

// Folder groups documents. ParentID is nil at the top level.
type Folder struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is the metadata of an uploaded file; contents live in the blob store.
type Document struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	FolderID    *string   `json:"folder_id,omitempty"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeHuman   string    `json:"size_human"`
	SHA256      string    `json:"sha256"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    string    `json:"entity_id,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Breadcrumb is one hop on the path from the root to a folder.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FolderContents is the navigation view of a single folder.
type FolderContents struct {
	Folder      *Folder      `json:"folder"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	Folders     []Folder     `json:"folders"`
	Documents   []Document   `json:"documents"`
}

// FolderRequest is the body for creating a folder.
type FolderRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200,excludesall=/\\"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

// RenameFolderRequest is the body of PATCH /folders/{id}.
type RenameFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200,excludesall=/\\"`
}

// MoveFolderRequest is the body of POST /folders/{id}/move. A nil parent moves to root.
type MoveFolderRequest struct {
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}
