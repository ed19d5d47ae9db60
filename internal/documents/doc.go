// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package documents stores uploaded files (rate confirmations, bills of
// lading, proof of delivery). Metadata and the folder tree live in DuckDB;
// contents live in BadgerDB keyed doc:<tenant>:<id>. BlobStore.Serve runs
// value log GC as a supervised service.
package documents
