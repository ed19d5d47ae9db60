// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/haulbase/internal/models"
)

func newTestFolder(t *testing.T, db *DB, name string, parent *models.Folder) *models.Folder {
	t.Helper()
	f := &models.Folder{TenantID: testTenant, Name: name}
	if parent != nil {
		f.ParentID = &parent.ID
	}
	if err := db.CreateFolder(context.Background(), f); err != nil {
		t.Fatalf("CreateFolder %s: %v", name, err)
	}
	return f
}

func TestFolderContents_Breadcrumbs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	carriers := newTestFolder(t, db, "Carriers", nil)
	newTestFolder(t, db, "Archive", nil)
	prairie := newTestFolder(t, db, "Prairie Line", carriers)
	newTestFolder(t, db, "insurance", prairie)
	newTestFolder(t, db, "W-9", prairie)

	for _, name := range []string{"rate-con.pdf", "BOL.pdf"} {
		doc := &models.Document{
			TenantID:    testTenant,
			FolderID:    &prairie.ID,
			Name:        name,
			ContentType: "application/pdf",
			SizeBytes:   2048,
			SHA256:      "abc",
			UploadedBy:  "tester",
		}
		if err := db.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	root, err := db.FolderContents(ctx, testTenant, models.RootFolderID)
	if err != nil {
		t.Fatalf("root contents: %v", err)
	}
	if len(root.Folders) != 2 || root.Folders[0].Name != "Archive" || root.Folders[1].Name != "Carriers" {
		t.Errorf("root folders = %+v", root.Folders)
	}
	if len(root.Breadcrumbs) != 1 || root.Breadcrumbs[0].ID != models.RootFolderID {
		t.Errorf("root breadcrumbs = %+v", root.Breadcrumbs)
	}

	got, err := db.FolderContents(ctx, testTenant, prairie.ID)
	if err != nil {
		t.Fatalf("FolderContents: %v", err)
	}
	wantCrumbs := []string{"Documents", "Carriers", "Prairie Line"}
	if len(got.Breadcrumbs) != len(wantCrumbs) {
		t.Fatalf("breadcrumbs = %+v", got.Breadcrumbs)
	}
	for i, want := range wantCrumbs {
		if got.Breadcrumbs[i].Name != want {
			t.Errorf("breadcrumb %d = %s, want %s", i, got.Breadcrumbs[i].Name, want)
		}
	}
	if len(got.Folders) != 2 || got.Folders[0].Name != "insurance" {
		t.Errorf("child folders not sorted case-insensitively: %+v", got.Folders)
	}
	if len(got.Documents) != 2 || got.Documents[0].Name != "BOL.pdf" {
		t.Errorf("documents = %+v", got.Documents)
	}
	if got.Documents[0].SizeHuman != "2.0 KiB" {
		t.Errorf("size_human = %q", got.Documents[0].SizeHuman)
	}

	if _, err := db.FolderContents(ctx, otherTestTenant, prairie.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant contents error = %v, want ErrNotFound", err)
	}
}

func TestFolder_SiblingNamesUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestFolder(t, db, "Loads", nil)
	dup := &models.Folder{TenantID: testTenant, Name: "loads"}
	if err := db.CreateFolder(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate sibling error = %v, want ErrConflict", err)
	}

	child := newTestFolder(t, db, "Loads", a)
	other := newTestFolder(t, db, "March", a)
	if _, err := db.RenameFolder(ctx, testTenant, other.ID, "LOADS"); !errors.Is(err, ErrConflict) {
		t.Errorf("rename onto sibling error = %v, want ErrConflict", err)
	}
	if _, err := db.MoveFolder(ctx, testTenant, child.ID, nil); !errors.Is(err, ErrConflict) {
		t.Errorf("move onto same-named root folder error = %v, want ErrConflict", err)
	}

	renamed, err := db.RenameFolder(ctx, testTenant, other.ID, "April")
	if err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}
	if renamed.Name != "April" {
		t.Errorf("name = %q", renamed.Name)
	}
}

func TestMoveFolder_RejectsCycles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestFolder(t, db, "A", nil)
	b := newTestFolder(t, db, "B", a)
	c := newTestFolder(t, db, "C", b)

	if _, err := db.MoveFolder(ctx, testTenant, a.ID, &c.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("move into descendant error = %v, want ErrConflict", err)
	}
	if _, err := db.MoveFolder(ctx, testTenant, a.ID, &a.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("move into self error = %v, want ErrConflict", err)
	}

	root := models.RootFolderID
	moved, err := db.MoveFolder(ctx, testTenant, c.ID, &root)
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("parent after move to root = %v", *moved.ParentID)
	}
}

func TestDeleteFolder_OnlyEmpty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	parent := newTestFolder(t, db, "Parent", nil)
	child := newTestFolder(t, db, "Child", parent)

	if err := db.DeleteFolder(ctx, testTenant, parent.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("delete non-empty error = %v, want ErrConflict", err)
	}
	if err := db.DeleteFolder(ctx, testTenant, child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if err := db.DeleteFolder(ctx, testTenant, parent.ID); err != nil {
		t.Fatalf("delete emptied parent: %v", err)
	}
}

func TestEntityDocuments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	l := newTestLoad(t, db, testTenant)
	doc := &models.Document{
		TenantID:    testTenant,
		Name:        "pod.jpg",
		ContentType: "image/jpeg",
		SizeBytes:   1,
		SHA256:      "x",
		EntityType:  "load",
		EntityID:    l.ID,
		UploadedBy:  "driver",
	}
	if err := db.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	docs, err := db.EntityDocuments(ctx, testTenant, "load", l.ID)
	if err != nil {
		t.Fatalf("EntityDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID || docs[0].FolderID != nil {
		t.Errorf("docs = %+v", docs)
	}

	if err := db.DeleteDocument(ctx, testTenant, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := db.GetDocument(ctx, testTenant, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted error = %v, want ErrNotFound", err)
	}
}

func TestFolderDepthLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var deepest *models.Folder
	for depth := 1; depth <= maxFolderDepth; depth++ {
		deepest = newTestFolder(t, db, fmt.Sprintf("level-%02d", depth), deepest)
	}

	tooDeep := &models.Folder{TenantID: testTenant, Name: "one too many", ParentID: &deepest.ID}
	if err := db.CreateFolder(ctx, tooDeep); !errors.Is(err, ErrConflict) {
		t.Errorf("CreateFolder past the limit error = %v, want ErrConflict", err)
	}
	got, err := db.FolderContents(ctx, testTenant, deepest.ID)
	if err != nil {
		t.Fatalf("FolderContents(deepest) error = %v", err)
	}
	if len(got.Breadcrumbs) != maxFolderDepth+1 || len(got.Folders) != 0 {
		t.Errorf("breadcrumbs = %d, folders = %d", len(got.Breadcrumbs), len(got.Folders))
	}

	// A two-level subtree fits under level 62 but not under level 63.
	archive := newTestFolder(t, db, "Archive", nil)
	newTestFolder(t, db, "2025", archive)

	chain, err := folderChain(ctx, db.conn, testTenant, deepest.ID)
	if err != nil {
		t.Fatal(err)
	}
	level63, level62 := chain[1].ID, chain[2].ID

	if _, err := db.MoveFolder(ctx, testTenant, archive.ID, &level63); !errors.Is(err, ErrConflict) {
		t.Errorf("MoveFolder under level 63 error = %v, want ErrConflict", err)
	}
	if _, err := db.MoveFolder(ctx, testTenant, archive.ID, &level62); err != nil {
		t.Fatalf("MoveFolder under level 62 error = %v", err)
	}
	height, err := subtreeHeight(ctx, db.conn, testTenant, archive.ID)
	if err != nil || height != 2 {
		t.Errorf("subtreeHeight = %d, %v; want 2", height, err)
	}
}
