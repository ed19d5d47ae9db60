// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package documents

import (
	"bytes"
	"errors"
	"testing"
)

func newTestBlobStore(t *testing.T) *BlobStore {
	t.Helper()
	s, err := OpenBlobStore("")
	if err != nil {
		t.Fatalf("OpenBlobStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestBlobStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestBlobStore(t)
	want := []byte("%PDF-1.7 bill of lading")

	if err := s.Put("acme", "doc-1", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get("acme", "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}

	if _, err := s.Get("other", "doc-1"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get(other tenant) error = %v, want ErrBlobNotFound", err)
	}

	if err := s.Delete("acme", "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("acme", "doc-1"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrBlobNotFound", err)
	}
	if err := s.Delete("acme", "doc-1"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestBlobStore_OnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := OpenBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("acme", "doc-2", []byte("pod")); err != nil {
		t.Fatal(err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.Get("acme", "doc-2")
	if err != nil || string(got) != "pod" {
		t.Errorf("Get() after reopen = %q, %v", got, err)
	}
}

func TestBlobStore_GCInMemory(t *testing.T) {
	t.Parallel()

	if err := newTestBlobStore(t).RunGC(); err != nil {
		t.Errorf("RunGC() in memory error = %v", err)
	}
}
