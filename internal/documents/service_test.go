// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package documents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/models"
)

// docStore keeps document metadata in a map; folder calls are unused here.
type docStore struct {
	mu        sync.Mutex
	docs      map[string]models.Document
	createErr error
}

func newDocStore() *docStore { return &docStore{docs: map[string]models.Document{}} }

func (s *docStore) GetFolder(context.Context, string, string) (*models.Folder, error) {
	return nil, database.ErrNotFound
}
func (s *docStore) CreateFolder(context.Context, *models.Folder) error { return nil }
func (s *docStore) RenameFolder(context.Context, string, string, string) (*models.Folder, error) {
	return nil, nil
}
func (s *docStore) MoveFolder(context.Context, string, string, *string) (*models.Folder, error) {
	return nil, nil
}
func (s *docStore) DeleteFolder(context.Context, string, string) error { return nil }
func (s *docStore) FolderContents(context.Context, string, string) (*models.FolderContents, error) {
	return &models.FolderContents{}, nil
}

func (s *docStore) CreateDocument(_ context.Context, d *models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.TenantID+"/"+d.ID] = *d
	return nil
}

func (s *docStore) GetDocument(_ context.Context, tenantID, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[tenantID+"/"+id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &d, nil
}

func (s *docStore) DeleteDocument(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[tenantID+"/"+id]; !ok {
		return database.ErrNotFound
	}
	delete(s.docs, tenantID+"/"+id)
	return nil
}

func (s *docStore) EntityDocuments(context.Context, string, string, string) ([]models.Document, error) {
	return nil, nil
}

func TestUploadDownloadDelete(t *testing.T) {
	t.Parallel()

	blobs := newTestBlobStore(t)
	svc := NewService(newDocStore(), blobs, 1024)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "acme", "alice", Upload{
		Name:       "bol.txt",
		EntityType: "load",
		EntityID:   "load-1",
		Body:       strings.NewReader("shipper: ACME\nconsignee: Globex\n"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.SizeBytes != 32 || doc.UploadedBy != "alice" {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.HasPrefix(doc.ContentType, "text/plain") {
		t.Errorf("content type = %q, want sniffed text/plain", doc.ContentType)
	}
	if len(doc.SHA256) != 64 {
		t.Errorf("sha256 = %q", doc.SHA256)
	}

	got, data, err := svc.Download(ctx, "acme", doc.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if got.ID != doc.ID || !strings.Contains(string(data), "Globex") {
		t.Errorf("Download() = %+v, %q", got, data)
	}

	if _, _, err := svc.Download(ctx, "other", doc.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Download(other tenant) error = %v", err)
	}

	if err := svc.Delete(ctx, "acme", doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := blobs.Get("acme", doc.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("contents survived delete: %v", err)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()

	svc := NewService(newDocStore(), newTestBlobStore(t), 8)
	_, err := svc.Upload(context.Background(), "acme", "alice", Upload{Name: "big.bin", Body: strings.NewReader("123456789")})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Upload() error = %v, want ErrTooLarge", err)
	}
}

func TestUpload_MetadataFailureRemovesContents(t *testing.T) {
	t.Parallel()

	store := newDocStore()
	store.createErr = database.ErrNotFound
	blobs := newTestBlobStore(t)
	svc := NewService(store, blobs, 0)

	_, err := svc.Upload(context.Background(), "acme", "alice", Upload{Name: "x.txt", Body: strings.NewReader("x")})
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Upload() error = %v", err)
	}

	count := 0
	if err := blobs.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("%d blobs left behind", count)
	}
}
