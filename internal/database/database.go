// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/logging"
)

// DB wraps the DuckDB connection and provides tenant-scoped data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Candidate equipment tables in lookup order, and the one that last answered.
	equipmentTables []string
	equipmentMu     sync.RWMutex
	equipmentTable  string

	now func() time.Time
}

// New opens the DuckDB database at cfg.Path, creates the schema and runs
// pending migrations. equipmentTables is the ordered list of candidate tables
// for equipment lookups; names must already be validated identifiers.
func New(cfg *config.DatabaseConfig, equipmentTables []string) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	// Extensions are never auto-installed; the schema sticks to core types.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		pathForDSN(cfg.Path), numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if len(equipmentTables) == 0 {
		equipmentTables = []string{"equipment_types", "equipment"}
	}

	db := &DB{
		conn:            conn,
		cfg:             cfg,
		equipmentTables: append([]string(nil), equipmentTables...),
		now:             func() time.Time { return time.Now().UTC() },
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.enableProfiling(); err != nil {
		logging.Warn().Err(err).Msg("Query profiling not enabled")
	}

	return db, nil
}

// pathForDSN maps an empty path to an in-memory database.
func pathForDSN(path string) string {
	if path == ":memory:" {
		return ""
	}
	return path
}

// Conn returns the underlying SQL connection for packages that own their
// own tables, such as the audit store.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// SetClock overrides the time source. Tests use it to pin timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables, runs versioned migrations and seeds reference data.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}

	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if err := db.createIndexes(); err != nil {
		return err
	}

	ctx, cancel := schemaContext()
	defer cancel()
	if err := db.seedReferenceData(ctx); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}
