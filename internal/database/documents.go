// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/tomtom215/haulbase/internal/models"
)

// rootFolderName labels the implicit top-level folder in breadcrumbs.
const rootFolderName = "Documents"

// maxFolderDepth bounds how deep folders nest. A top-level folder has
// depth 1.
const maxFolderDepth = 64

// folderParent maps the public "root" id to the NULL parent used in storage.
func folderParent(id *string) *string {
	if id == nil || *id == "" || *id == models.RootFolderID {
		return nil
	}
	return id
}

func scanFolder(row scanner) (*models.Folder, error) {
	f := &models.Folder{}
	var parent sql.NullString
	if err := row.Scan(&f.ID, &f.TenantID, &parent, &f.Name, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ParentID = stringPtr(parent)
	return f, nil
}

const folderColumns = `id, tenant_id, parent_id, name, created_at, updated_at`

func getFolder(ctx context.Context, q execer, tenantID, id string) (*models.Folder, error) {
	f, err := scanFolder(q.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return f, nil
}

// ensureUniqueSibling rejects a folder name already used under parent.
func ensureUniqueSibling(ctx context.Context, q execer, tenantID string, parent *string, name, exceptID string) error {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders
		WHERE tenant_id = ? AND parent_id IS NOT DISTINCT FROM ? AND lower(name) = lower(?) AND id <> ?`,
		tenantID, nullStringPtr(parent), name, exceptID).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check folder name: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("a folder named %q already exists here: %w", name, ErrConflict)
	}
	return nil
}

// GetFolder returns one folder of the tenant.
func (db *DB) GetFolder(ctx context.Context, tenantID, id string) (*models.Folder, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getFolder(ctx, db.conn, tenantID, id)
}

// CreateFolder creates a folder under its parent, or at the top level.
func (db *DB) CreateFolder(ctx context.Context, f *models.Folder) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	f.ParentID = folderParent(f.ParentID)
	f.Name = strings.TrimSpace(f.Name)
	now := db.now()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.CreatedAt, f.UpdatedAt = now, now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if f.ParentID != nil {
			chain, err := folderChain(ctx, tx, f.TenantID, *f.ParentID)
			if err != nil {
				return err
			}
			if len(chain)+1 > maxFolderDepth {
				return fmt.Errorf("folder %q would exceed maximum depth %d: %w", f.Name, maxFolderDepth, ErrConflict)
			}
		}
		if err := ensureUniqueSibling(ctx, tx, f.TenantID, f.ParentID, f.Name, f.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.TenantID, nullStringPtr(f.ParentID), f.Name, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}
		return nil
	})
}

// RenameFolder changes a folder's name, keeping sibling names unique.
func (db *DB) RenameFolder(ctx context.Context, tenantID, id, name string) (*models.Folder, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var out *models.Folder
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		f, err := getFolder(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		f.Name = strings.TrimSpace(name)
		if err := ensureUniqueSibling(ctx, tx, tenantID, f.ParentID, f.Name, f.ID); err != nil {
			return err
		}
		f.UpdatedAt = db.now()
		if _, err := tx.ExecContext(ctx, `UPDATE folders SET name = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			f.Name, f.UpdatedAt, tenantID, id); err != nil {
			return fmt.Errorf("failed to rename folder: %w", err)
		}
		out = f
		return nil
	})
	return out, err
}

// MoveFolder re-parents a folder. Moving a folder into itself or one of its
// descendants returns ErrConflict.
func (db *DB) MoveFolder(ctx context.Context, tenantID, id string, parentID *string) (*models.Folder, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	parentID = folderParent(parentID)
	var out *models.Folder
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		f, err := getFolder(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if parentID != nil {
			chain, err := folderChain(ctx, tx, tenantID, *parentID)
			if err != nil {
				return err
			}
			for _, ancestor := range chain {
				if ancestor.ID == id {
					return fmt.Errorf("folder %s cannot be moved into its own subtree: %w", id, ErrConflict)
				}
			}
			height, err := subtreeHeight(ctx, tx, tenantID, id)
			if err != nil {
				return err
			}
			if len(chain)+height > maxFolderDepth {
				return fmt.Errorf("moving folder %s would exceed maximum depth %d: %w", id, maxFolderDepth, ErrConflict)
			}
		}
		if err := ensureUniqueSibling(ctx, tx, tenantID, parentID, f.Name, f.ID); err != nil {
			return err
		}
		f.ParentID = parentID
		f.UpdatedAt = db.now()
		if _, err := tx.ExecContext(ctx, `UPDATE folders SET parent_id = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			nullStringPtr(parentID), f.UpdatedAt, tenantID, id); err != nil {
			return fmt.Errorf("failed to move folder: %w", err)
		}
		out = f
		return nil
	})
	return out, err
}

// DeleteFolder removes an empty folder.
func (db *DB) DeleteFolder(ctx context.Context, tenantID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getFolder(ctx, tx, tenantID, id); err != nil {
			return err
		}
		var children int64
		if err := tx.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM folders WHERE tenant_id = ? AND parent_id = ?) +
			(SELECT COUNT(*) FROM documents WHERE tenant_id = ? AND folder_id = ?)`,
			tenantID, id, tenantID, id).Scan(&children); err != nil {
			return fmt.Errorf("failed to count folder contents: %w", err)
		}
		if children > 0 {
			return fmt.Errorf("folder %s is not empty: %w", id, ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE tenant_id = ? AND id = ?`, tenantID, id); err != nil {
			return fmt.Errorf("failed to delete folder: %w", err)
		}
		return nil
	})
}

// folderChain returns the folder id and its ancestors, nearest first.
func folderChain(ctx context.Context, q execer, tenantID, id string) ([]models.Folder, error) {
	var chain []models.Folder
	next := id
	for depth := 0; depth < maxFolderDepth; depth++ {
		f, err := getFolder(ctx, q, tenantID, next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *f)
		if f.ParentID == nil {
			return chain, nil
		}
		next = *f.ParentID
	}
	return nil, fmt.Errorf("folder %s exceeds maximum depth %d: %w", id, maxFolderDepth, ErrConflict)
}

// subtreeHeight counts the levels from folder id down to its deepest
// descendant, 1 for a folder without subfolders.
func subtreeHeight(ctx context.Context, q execer, tenantID, id string) (int, error) {
	var height sql.NullInt64
	err := q.QueryRowContext(ctx, `WITH RECURSIVE subtree(id, depth) AS (
			SELECT id, 1 FROM folders WHERE tenant_id = ? AND id = ?
			UNION ALL
			SELECT f.id, s.depth + 1 FROM folders f JOIN subtree s ON f.parent_id = s.id
			WHERE f.tenant_id = ? AND s.depth <= ?
		)
		SELECT MAX(depth) FROM subtree`, tenantID, id, tenantID, maxFolderDepth).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("failed to measure folder subtree: %w", err)
	}
	return int(height.Int64), nil
}

// FolderContents returns a folder with its breadcrumbs, child folders and
// documents. Use models.RootFolderID for the top level.
func (db *DB) FolderContents(ctx context.Context, tenantID, id string) (*models.FolderContents, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	out := &models.FolderContents{
		Breadcrumbs: []models.Breadcrumb{{ID: models.RootFolderID, Name: rootFolderName}},
	}

	var parent *string
	if id == "" || id == models.RootFolderID {
		out.Folder = &models.Folder{ID: models.RootFolderID, TenantID: tenantID, Name: rootFolderName}
	} else {
		chain, err := folderChain(ctx, db.conn, tenantID, id)
		if err != nil {
			return nil, err
		}
		for i := len(chain) - 1; i >= 0; i-- {
			out.Breadcrumbs = append(out.Breadcrumbs, models.Breadcrumb{ID: chain[i].ID, Name: chain[i].Name})
		}
		folder := chain[0]
		out.Folder = &folder
		parent = &folder.ID
	}

	folders, err := db.childFolders(ctx, tenantID, parent)
	if err != nil {
		return nil, err
	}
	out.Folders = folders

	docs, err := db.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE tenant_id = ? AND folder_id IS NOT DISTINCT FROM ? ORDER BY lower(name), id`,
		tenantID, nullStringPtr(parent))
	if err != nil {
		return nil, err
	}
	out.Documents = docs
	return out, nil
}

func (db *DB) childFolders(ctx context.Context, tenantID string, parent *string) ([]models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+folderColumns+` FROM folders
		WHERE tenant_id = ? AND parent_id IS NOT DISTINCT FROM ? ORDER BY lower(name), id`,
		tenantID, nullStringPtr(parent))
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

const documentColumns = `id, tenant_id, folder_id, name, content_type, size_bytes, sha256,
	entity_type, entity_id, uploaded_by, created_at`

func scanDocument(row scanner) (*models.Document, error) {
	d := &models.Document{}
	var folder, entityType, entityID sql.NullString
	if err := row.Scan(&d.ID, &d.TenantID, &folder, &d.Name, &d.ContentType, &d.SizeBytes, &d.SHA256,
		&entityType, &entityID, &d.UploadedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.FolderID = stringPtr(folder)
	d.EntityType = entityType.String
	d.EntityID = entityID.String
	d.SizeHuman = humanize.IBytes(uint64(max(d.SizeBytes, 0)))
	return d, nil
}

func (db *DB) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]models.Document, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// CreateDocument records document metadata. The folder must exist when set.
func (db *DB) CreateDocument(ctx context.Context, d *models.Document) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	d.FolderID = folderParent(d.FolderID)
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = db.now()
	d.SizeHuman = humanize.IBytes(uint64(max(d.SizeBytes, 0)))

	if d.FolderID != nil {
		if _, err := getFolder(ctx, db.conn, d.TenantID, *d.FolderID); err != nil {
			return err
		}
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.TenantID, nullStringPtr(d.FolderID), d.Name, d.ContentType, d.SizeBytes, d.SHA256,
		nullString(d.EntityType), nullString(d.EntityID), d.UploadedBy, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument returns the metadata of one document.
func (db *DB) GetDocument(ctx context.Context, tenantID, id string) (*models.Document, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	d, err := scanDocument(db.conn.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// DeleteDocument removes document metadata.
func (db *DB) DeleteDocument(ctx context.Context, tenantID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireOneRow(result, "document "+id)
}

// EntityDocuments lists the documents attached to an entity, newest first.
func (db *DB) EntityDocuments(ctx context.Context, tenantID, entityType, entityID string) ([]models.Document, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC, id`, tenantID, entityType, entityID)
}
