// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tabmesh/tabmesh/lib/ref"
)

// Record is one stored entity: its storage key, the opaque encoded
// entity bytes, and — for shared-group entities — the collaboration
// the record belongs to.
type Record struct {
	// StorageKey is the entity GUID.
	StorageKey string

	// Collaboration is the owning collaboration for shared entities.
	// Zero for private saved-group entities.
	Collaboration ref.CollaborationID

	// Data is the CBOR-encoded wire entity.
	Data []byte
}

// Config holds the parameters for opening a Store. Path is required.
type Config struct {
	// Path is the filesystem path of the SQLite database file. The
	// parent directory must exist; the file is created on first open.
	Path string

	// PoolSize is the number of pooled connections. Zero means a
	// small default. The engine runs on one sequence, so contention
	// is limited to the inspect CLI reading alongside.
	PoolSize int

	// Logger receives operational messages. Nil discards output.
	Logger *slog.Logger
}

// Store is a durable key→bytes entity table. Safe for concurrent use;
// each call borrows its own pooled connection.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open opens (creating if needed) the entity database at cfg.Path.
// The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	logger.Info("entity store opened", "path", cfg.Path, "pool_size", poolSize)
	return &Store{pool: pool, logger: logger, path: cfg.Path}, nil
}

// Close closes the store. Blocks until borrowed connections return.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	s.logger.Info("entity store closed", "path", s.path)
	return nil
}

// prepareConnection applies standard pragmas and creates the schema.
// Runs once per pooled connection on first use.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS entities (
			storage_key      TEXT PRIMARY KEY,
			collaboration_id TEXT NOT NULL DEFAULT '',
			data             BLOB NOT NULL
		)`
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// LoadAll reads every stored record. This is the bridge's initial
// load; the result order is unspecified.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	defer s.pool.Put(conn)

	var records []Record
	err = sqlitex.Execute(conn,
		"SELECT storage_key, collaboration_id, data FROM entities",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data := make([]byte, stmt.ColumnLen(2))
				stmt.ColumnBytes(2, data)
				var collaboration ref.CollaborationID
				if raw := stmt.ColumnText(1); raw != "" {
					collaboration, _ = ref.ParseCollaborationID(raw)
				}
				records = append(records, Record{
					StorageKey:    stmt.ColumnText(0),
					Collaboration: collaboration,
					Data:          data,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	return records, nil
}

// Get reads a single record by storage key. The bool reports whether
// the key exists.
func (s *Store) Get(ctx context.Context, storageKey string) (Record, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Record{}, false, fmt.Errorf("store: get: %w", err)
	}
	defer s.pool.Put(conn)

	var record Record
	found := false
	err = sqlitex.Execute(conn,
		"SELECT storage_key, collaboration_id, data FROM entities WHERE storage_key = ?",
		&sqlitex.ExecOptions{
			Args: []any{storageKey},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data := make([]byte, stmt.ColumnLen(2))
				stmt.ColumnBytes(2, data)
				var collaboration ref.CollaborationID
				if raw := stmt.ColumnText(1); raw != "" {
					collaboration, _ = ref.ParseCollaborationID(raw)
				}
				record = Record{
					StorageKey:    stmt.ColumnText(0),
					Collaboration: collaboration,
					Data:          data,
				}
				found = true
				return nil
			},
		})
	if err != nil {
		return Record{}, false, fmt.Errorf("store: get %s: %w", storageKey, err)
	}
	return record, found, nil
}

// Wipe deletes every record. Used when sync is disabled for the
// owning bridge and its local state must be forgotten.
func (s *Store) Wipe(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: wipe: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteTransient(conn, "DELETE FROM entities", nil); err != nil {
		return fmt.Errorf("store: wipe: %w", err)
	}
	s.logger.Info("entity store wiped", "path", s.path)
	return nil
}

// WipeCollaboration deletes every record belonging to one
// collaboration. Records without collaboration metadata are never
// touched. Used when this device loses membership in a single
// collaboration while the rest of shared sync stays on.
func (s *Store) WipeCollaboration(ctx context.Context, collaboration ref.CollaborationID) error {
	if collaboration.IsZero() {
		return fmt.Errorf("store: wipe collaboration: collaboration ID is required")
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: wipe collaboration: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM entities WHERE collaboration_id = ?",
		&sqlitex.ExecOptions{Args: []any{collaboration.String()}})
	if err != nil {
		return fmt.Errorf("store: wipe collaboration %s: %w", collaboration, err)
	}
	s.logger.Info("collaboration wiped from entity store",
		"path", s.path, "collaboration", collaboration.String())
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: len: %w", err)
	}
	defer s.pool.Put(conn)

	count := 0
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM entities", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("store: len: %w", err)
	}
	return count, nil
}
