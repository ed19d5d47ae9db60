// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
	"github.com/tomtom215/haulbase/internal/models"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("document exceeds upload limit")

// Store holds folder and document metadata.
type Store interface {
	GetFolder(ctx context.Context, tenantID, id string) (*models.Folder, error)
	CreateFolder(ctx context.Context, f *models.Folder) error
	RenameFolder(ctx context.Context, tenantID, id, name string) (*models.Folder, error)
	MoveFolder(ctx context.Context, tenantID, id string, parentID *string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, tenantID, id string) error
	FolderContents(ctx context.Context, tenantID, id string) (*models.FolderContents, error)
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, tenantID, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, tenantID, id string) error
	EntityDocuments(ctx context.Context, tenantID, entityType, entityID string) ([]models.Document, error)
}

// Upload describes one file being added.
type Upload struct {
	FolderID    *string
	Name        string
	ContentType string
	EntityType  string
	EntityID    string
	Body        io.Reader
}

// Service keeps document metadata in the database and contents in the
// blob store.
type Service struct {
	store    Store
	blobs    *BlobStore
	maxBytes int64
}

// NewService creates a document service. maxBytes <= 0 disables the limit.
func NewService(store Store, blobs *BlobStore, maxBytes int64) *Service {
	return &Service{store: store, blobs: blobs, maxBytes: maxBytes}
}

// MaxUploadBytes reports the upload limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxBytes }

// Contents returns the navigation view of a folder, or of the top level
// for models.RootFolderID.
func (s *Service) Contents(ctx context.Context, tenantID, folderID string) (*models.FolderContents, error) {
	return s.store.FolderContents(ctx, tenantID, folderID)
}

// CreateFolder adds a folder under req.ParentID (top level when nil).
func (s *Service) CreateFolder(ctx context.Context, tenantID string, req *models.FolderRequest) (*models.Folder, error) {
	f := &models.Folder{TenantID: tenantID, ParentID: req.ParentID, Name: req.Name}
	if err := s.store.CreateFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RenameFolder renames a folder; names stay unique among siblings.
func (s *Service) RenameFolder(ctx context.Context, tenantID, id, name string) (*models.Folder, error) {
	return s.store.RenameFolder(ctx, tenantID, id, name)
}

// MoveFolder reparents a folder. Moving under one of its own descendants
// is a conflict.
func (s *Service) MoveFolder(ctx context.Context, tenantID, id string, parentID *string) (*models.Folder, error) {
	return s.store.MoveFolder(ctx, tenantID, id, parentID)
}

// DeleteFolder removes an empty folder.
func (s *Service) DeleteFolder(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteFolder(ctx, tenantID, id)
}

// EntityDocuments lists documents attached to an entity.
func (s *Service) EntityDocuments(ctx context.Context, tenantID, entityType, entityID string) ([]models.Document, error) {
	return s.store.EntityDocuments(ctx, tenantID, entityType, entityID)
}

// Get returns a document's metadata.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, tenantID, id)
}

// Upload stores the contents first and then the metadata, removing the
// contents again if the metadata cannot be written.
func (s *Service) Upload(ctx context.Context, tenantID, actor string, up Upload) (*models.Document, error) {
	body := up.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(up.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", up.Name, ErrTooLarge, s.maxBytes)
	}

	sum := sha256.Sum256(data)
	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	doc := &models.Document{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		FolderID:    up.FolderID,
		Name:        up.Name,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
		EntityType:  up.EntityType,
		EntityID:    up.EntityID,
		UploadedBy:  actor,
	}

	if err := s.blobs.Put(tenantID, doc.ID, data); err != nil {
		return nil, err
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if derr := s.blobs.Delete(tenantID, doc.ID); derr != nil {
			logging.Ctx(ctx).Warn().Err(derr).Str("document_id", doc.ID).Msg("Failed to remove orphaned document contents")
		}
		return nil, err
	}
	metrics.DocumentBytesStored.Add(float64(len(data)))
	return doc, nil
}

// Download returns a document with its contents.
func (s *Service) Download(ctx context.Context, tenantID, id string) (*models.Document, []byte, error) {
	doc, err := s.store.GetDocument(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// Delete removes a document's metadata and then its contents.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.store.DeleteDocument(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(tenantID, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("document_id", id).Msg("Failed to remove document contents")
	}
	return nil
}
