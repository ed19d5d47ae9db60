// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/haulbase/internal/logging"
)

// ErrBlobNotFound is returned when no contents are stored under a key.
var ErrBlobNotFound = errors.New("document contents not found")

// gcInterval is how often Serve reclaims value log space.
const gcInterval = 10 * time.Minute

// BlobStore keeps document contents in BadgerDB under doc:<tenant>:<id>.
type BlobStore struct {
	db *badger.DB
}

// OpenBlobStore opens (or creates) the blob store at path. An empty path
// keeps everything in memory.
func OpenBlobStore(path string) (*BlobStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Document blob store opened")
	return &BlobStore{db: db}, nil
}

func blobKey(tenantID, id string) []byte {
	return []byte("doc:" + tenantID + ":" + id)
}

// Put stores data for a document, replacing existing contents.
func (s *BlobStore) Put(tenantID, id string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(tenantID, id), data)
	})
	if err != nil {
		return fmt.Errorf("store document %s: %w", id, err)
	}
	return nil
}

// Get returns a copy of a document's contents.
func (s *BlobStore) Get(tenantID, id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(tenantID, id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, ErrBlobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", id, err)
	}
	return data, nil
}

// Delete removes a document's contents. Missing keys are not an error.
func (s *BlobStore) Delete(tenantID, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blobKey(tenantID, id))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// RunGC rewrites value log files until nothing is left to reclaim.
func (s *BlobStore) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("blob store gc: %w", err)
		}
	}
}

// Serve runs value log GC periodically until ctx is done.
func (s *BlobStore) Serve(ctx context.Context) error {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Blob store GC failed")
			}
		}
	}
}

func (s *BlobStore) String() string { return "document-blob-gc" }

// Close flushes and closes the store.
func (s *BlobStore) Close() error {
	return s.db.Close()
}
